package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"civicportal/internal/db"
	"civicportal/internal/document"
	"civicportal/internal/seed"
	"civicportal/internal/store"
	"civicportal/pkg/types"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var renderCommand = &cli.Command{
	Name:  "render",
	Usage: "Render a document PDF to a local file for layout review",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Document type of the sample record (ID_CARD, FAMILY_REGISTER, BIRTH_CERT, DEATH_CERT)",
			Value:   string(types.DocumentTypeIDCard),
		},
		&cli.StringFlag{
			Name:  "id",
			Usage: "Render a stored request instead of a sample",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Output file",
			Value:   "preview.pdf",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := context.Background()

		// The sample preview needs no database.
		cfg := new(types.Config)
		if err := envconfig.Process(c.String("env-prefix"), cfg); err != nil {
			return fmt.Errorf("process environment config: %w", err)
		}

		var (
			req *types.DocumentRequest
			err error
		)
		if id := c.String("id"); id != "" {
			req, err = loadStoredRequest(ctx, c, id)
		} else {
			req, err = sampleRequest(types.DocumentType(strings.ToUpper(c.String("type"))))
		}
		if err != nil {
			return err
		}

		data, err := newRenderer(cfg).Render(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", req.ID, err)
		}

		if err := os.WriteFile(c.String("out"), data, 0o644); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"type":  req.Type,
			"out":   c.String("out"),
			"bytes": len(data),
		}).Info("document rendered")

		return nil
	},
}

func sampleRequest(docType types.DocumentType) (*types.DocumentRequest, error) {
	if !docType.Valid() {
		return nil, fmt.Errorf("unknown document type %q", docType)
	}

	req, err := document.Validate(docType, seed.SampleFields(docType))
	if err != nil {
		return nil, fmt.Errorf("sample %s is invalid: %w", docType, err)
	}

	req.ID = "preview"
	req.Status = types.DocumentStatusApproved
	return req, nil
}

func loadStoredRequest(ctx context.Context, c *cli.Context, id string) (*types.DocumentRequest, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return store.NewDocumentRequestRepository(pool).DocumentRequest(ctx, id)
}
