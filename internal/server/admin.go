package server

import (
	"net/http"
	"strconv"
	"strings"

	"civicportal/pkg/types"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type adminDocumentList struct {
	Documents []*types.DocumentRequest `json:"documents"`
	Counts    *types.DocumentCounts    `json:"counts"`
}

func (s *Service) handleAdminListDocuments(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	actor, err := s.actorFromContext(ctx)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	query := r.URL.Query()
	filter := types.DocumentRequestFilter{
		Status: types.DocumentStatus(strings.ToUpper(strings.TrimSpace(query.Get("status")))),
		Type:   types.DocumentType(strings.ToUpper(strings.TrimSpace(query.Get("type")))),
	}

	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, codeBadRequest, "unknown status filter")
		return
	}
	if filter.Type != "" && !filter.Type.Valid() {
		writeError(w, http.StatusBadRequest, codeBadRequest, "unknown type filter")
		return
	}

	docs, counts, err := s.docs.ListAll(ctx, actor, filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if docs == nil {
		docs = []*types.DocumentRequest{}
	}

	writeJSON(w, http.StatusOK, adminDocumentList{Documents: docs, Counts: counts})
}

func (s *Service) handleAdminApprove(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	actor, err := s.actorFromContext(ctx)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	body, err := decodeDecision(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "request body could not be read")
		return
	}

	doc, err := s.docs.Approve(ctx, r.PathValue("id"), actor, body.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (s *Service) handleAdminReject(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	actor, err := s.actorFromContext(ctx)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	body, err := decodeDecision(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "request body could not be read")
		return
	}

	doc, err := s.docs.Reject(ctx, r.PathValue("id"), actor, body.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (s *Service) handleAdminActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxActivityLimit)
	}

	entries, err := s.activity.Recent(r.Context(), limit)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	if entries == nil {
		entries = []*types.ActivityLogEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}
