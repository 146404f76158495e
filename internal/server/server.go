package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"civicportal/internal/document"
	"civicportal/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// ActivityReader lists recent audit entries for the admin dashboard.
type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]*types.ActivityLogEntry, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Service struct {
	logger   logrus.FieldLogger
	config   *types.Config
	docs     *document.Service
	activity ActivityReader
	db       Pinger
	auth     Authenticator

	handler http.Handler
	server  *http.Server
}

func New(
	config *types.Config,
	logger logrus.FieldLogger,
	docs *document.Service,
	activity ActivityReader,
	db Pinger,
	auth Authenticator,
) *Service {
	mux := flow.New()

	s := &Service{
		logger:   logger,
		config:   config,
		docs:     docs,
		activity: activity,
		db:       db,
		auth:     auth,
		handler:  mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP exposes the router without a listener.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.MetricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", promhttp.Handler(), http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/documents", s.handlePostDocument, http.MethodPost)
		r.HandleFunc("/documents", s.handleListDocuments, http.MethodGet)
		r.HandleFunc("/documents/:id", s.handleGetDocument, http.MethodGet)
		r.HandleFunc("/documents/:id/download", s.handleDownloadDocument, http.MethodGet)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAdmin)

			r.HandleFunc("/admin/documents", s.handleAdminListDocuments, http.MethodGet)
			r.HandleFunc("/admin/documents/:id/approve", s.handleAdminApprove, http.MethodPost)
			r.HandleFunc("/admin/documents/:id/reject", s.handleAdminReject, http.MethodPost)
			r.HandleFunc("/admin/activity", s.handleAdminActivity, http.MethodGet)
		})
	})
}

func (s *Service) actorFromContext(ctx context.Context) (*types.Actor, error) {
	actor, ok := ctx.Value(contextKeyActor).(*types.Actor)
	if !ok || actor == nil {
		return nil, fmt.Errorf("actor not found in context")
	}
	return actor, nil
}
