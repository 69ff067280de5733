// Package apperr holds the error taxonomy shared by the store, codec and
// content services. Lower layers wrap these sentinels; handlers classify
// them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the credential is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the document does not exist in the remote store.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a write carried a stale version marker.
	ErrConflict = errors.New("version conflict")
	// ErrInvalidArgument covers missing fields, malformed JSON and bad indexes.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRemote covers transport and auth failures talking to the store.
	ErrRemote = errors.New("remote store error")
	// ErrFormat means a stored document could not be decoded.
	ErrFormat = errors.New("malformed document")
)

// Invalid returns an ErrInvalidArgument carrying a short reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Remote wraps a transport failure for op on path.
func Remote(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrRemote, op, path, err)
}
