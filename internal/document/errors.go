package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("document request not found")
	ErrForbidden    = errors.New("not allowed to access this document request")
	ErrInvalidState = errors.New("document request is not awaiting review")
	ErrNotApproved  = errors.New("document request has not been approved")
)

// ValidationError carries every field violation of a submission, keyed by
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// GenerationError wraps a failure to render or store a PDF.
type GenerationError struct {
	DocumentID string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate document %s: %v", e.DocumentID, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
