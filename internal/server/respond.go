package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"civicportal/internal/document"
)

const (
	codeValidationError = "VALIDATION_ERROR"
	codeNotFound        = "NOT_FOUND"
	codeUnauthorized    = "UNAUTHORIZED"
	codeForbidden       = "FORBIDDEN"
	codeConflict        = "CONFLICT"
	codeGenerationError = "GENERATION_FAILED"
	codeBadRequest      = "BAD_REQUEST"
	codeInternalError   = "INTERNAL_ERROR"
	codeUnavailable     = "UNAVAILABLE"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps document service errors onto HTTP responses.
// Anything unrecognised is logged and reported as a 500.
func (s *Service) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *document.ValidationError
		gerr *document.GenerationError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errorDetail{
			Code:    codeValidationError,
			Message: "the submission contains invalid fields",
			Fields:  verr.Fields,
		}})
	case errors.Is(err, document.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, document.ErrForbidden), errors.Is(err, document.ErrNotApproved):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, document.ErrInvalidState):
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.As(err, &gerr):
		s.logger.WithError(err).WithField("document_id", gerr.DocumentID).Error("document generation failed")
		writeError(w, http.StatusInternalServerError, codeGenerationError, "the document could not be generated")
	default:
		s.internalServerError(w, r, err)
	}
}

func (s *Service) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithError(err).WithField("path", r.URL.Path).Error("internal server error")
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal server error")
}
