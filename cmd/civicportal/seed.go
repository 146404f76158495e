package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"civicportal/internal/db"
	"civicportal/internal/seed"
	"civicportal/pkg/types"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo document requests",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of requests to submit",
			Value:   20,
		},
		&cli.StringFlag{
			Name:  "admin-id",
			Usage: "Actor id recorded on seeded decisions",
			Value: "seed-admin",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := newLogger(cfg)
		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logger.Info("Connected to database")

		docs, err := newDocumentService(ctx, cfg, pool, logger)
		if err != nil {
			return err
		}

		admin := &types.Actor{ID: c.String("admin-id"), Role: types.RoleAdmin}
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		_, err = seed.SeedDocuments(ctx, docs, admin, c.Int("count"), rng, logger)
		if err != nil {
			return fmt.Errorf("failed to seed document requests: %w", err)
		}

		return nil
	},
}
