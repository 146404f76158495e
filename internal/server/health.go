package server

import (
	"context"
	"net/http"
	"time"
)

type healthStatus struct {
	Status string `json:"status"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("database ping failed")
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, healthStatus{Status: "ok"})
}
