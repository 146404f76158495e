package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicportal/internal/db"
	"civicportal/internal/server"
	"civicportal/internal/store"

	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply pending migrations before serving",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logger := newLogger(config)

	if cCtx.Bool("migrate") {
		if err := db.Migrate(ctx, config.DatabaseURL, config.DatabaseSchema, logger); err != nil {
			return err
		}
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	docs, err := newDocumentService(ctx, config, pool, logger)
	if err != nil {
		return err
	}

	auth, err := server.NewJWTAuthenticator(ctx, config)
	if err != nil {
		return err
	}

	srv := server.New(
		config,
		logger,
		docs,
		store.NewActivityLogRepository(pool),
		pool,
		auth,
	)

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
