package main

import (
	"context"
	"fmt"
	"time"

	"civicportal/internal/document"
	"civicportal/internal/pdf"
	"civicportal/internal/storage"
	"civicportal/internal/store"
	"civicportal/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func loadConfig(c *cli.Context) (*types.Config, error) {
	cfg := new(types.Config)
	if err := envconfig.Process(c.String("env-prefix"), cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("set %s_DATABASE_URL", c.String("env-prefix"))
	}

	return cfg, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}

func newLogger(cfg *types.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func newStorage(ctx context.Context, cfg *types.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return storage.NewLocalStore(cfg.StorageDir)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("set S3_BUCKET when STORAGE_BACKEND is s3")
		}

		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}

		return storage.NewS3Store(s3.NewFromConfig(awsConfig), cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newRenderer(cfg *types.Config) *pdf.FPDFRenderer {
	return pdf.NewFPDFRenderer(pdf.Letterhead{
		Municipality:   cfg.PDFMunicipality,
		Office:         cfg.PDFOfficeName,
		AuthorityLabel: cfg.PDFAuthorityLabel,
	})
}

// newDocumentService wires the lifecycle service to postgres and the
// configured storage backend.
func newDocumentService(ctx context.Context, cfg *types.Config, pool *pgxpool.Pool, logger logrus.FieldLogger) (*document.Service, error) {
	files, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	generator := pdf.NewGenerator(newRenderer(cfg), files, time.Duration(cfg.PDFTimeoutSec)*time.Second)

	return document.New(
		store.NewDocumentRequestRepository(pool),
		store.NewUnitOfWork(pool),
		generator,
		logger,
	), nil
}
