package types

import "errors"

var (
	ErrDocumentRequestNotFound = errors.New("document request not found")
	// ErrStatusConflict is returned when a conditional status update matched
	// no row because the record was not in the expected status.
	ErrStatusConflict = errors.New("document request status changed")
)
