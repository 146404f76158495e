package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration in migrations/ to databaseURL.
// Tables and the migration bookkeeping table are created in schema.
func Migrate(ctx context.Context, databaseURL, schema string, logger logrus.FieldLogger) error {
	if err := ensureSchema(ctx, databaseURL, schema); err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	migrateURL, err := migrateURL(databaseURL, schema)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.WithFields(logrus.Fields{
		"schema":  schema,
		"version": version,
		"dirty":   dirty,
	}).Info("migrations applied")

	return nil
}

func ensureSchema(ctx context.Context, databaseURL, schema string) error {
	if schema == "" {
		return nil
	}

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect for schema setup: %w", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize())
	if err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	return nil
}

// migrateURL rewrites a postgres:// connection string to the pgx5:// scheme
// the golang-migrate pgx driver registers under and pins search_path to
// schema unless the url already sets one.
func migrateURL(databaseURL, schema string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql", "pgx5":
		u.Scheme = "pgx5"
	default:
		return "", fmt.Errorf("unsupported database url scheme %q", u.Scheme)
	}

	query := u.Query()
	if schema != "" && query.Get("search_path") == "" {
		query.Set("search_path", schema)
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}
