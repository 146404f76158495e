package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"civicportal/pkg/types"
)

func (s *Service) handlePostDocument(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	actor, err := s.actorFromContext(ctx)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	fields, err := decodeSubmission(r)
	if err != nil {
		s.logger.WithError(err).Debug("failed to decode submission")
		writeError(w, http.StatusBadRequest, codeBadRequest, "request body could not be read")
		return
	}

	req, err := s.docs.Submit(ctx, actor.ID, "", fields)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (s *Service) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	actor, err := s.actorFromContext(ctx)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	docs, err := s.docs.ListOwn(ctx, actor.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	summaries := make([]types.DocumentRequestSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, doc.Summary())
	}

	writeJSON(w, http.StatusOK, summaries)
}

func (s *Service) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	actor, err := s.actorFromContext(ctx)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	doc, err := s.docs.GetDetail(ctx, r.PathValue("id"), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (s *Service) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	actor, err := s.actorFromContext(ctx)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	dl, err := s.docs.Download(ctx, r.PathValue("id"), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	if dl.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Body); err != nil {
		s.logger.WithError(err).WithField("filename", dl.Filename).Warn("failed to stream document")
	}
}
