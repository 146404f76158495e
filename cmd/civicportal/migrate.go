package main

import (
	"civicportal/internal/db"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply pending database migrations",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		return db.Migrate(c.Context, cfg.DatabaseURL, cfg.DatabaseSchema, newLogger(cfg))
	},
}
