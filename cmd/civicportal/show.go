package main

import (
	"context"
	"fmt"

	"civicportal/internal/db"
	"civicportal/internal/store"
	"civicportal/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var showCommand = &cli.Command{
	Name:      "show",
	Usage:     "Print a stored document request and its activity history",
	ArgsUsage: "<id>",
	Action: func(c *cli.Context) error {
		id := c.Args().First()
		if id == "" {
			return fmt.Errorf("document request id is required")
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		req, err := store.NewDocumentRequestRepository(pool).DocumentRequest(ctx, id)
		if err != nil {
			return err
		}

		history, err := store.NewActivityLogRepository(pool).EntriesByEntity(ctx, types.ActivityEntityDocumentRequest, id)
		if err != nil {
			return err
		}

		pp.Println(req)
		pp.Println(history)

		return nil
	},
}
