// Package apperr holds the failure kinds shared by every bounded context.
// Context-specific sentinels live in services/<context>/domain/errors.go.
// Match with errors.Is; wrap with fmt.Errorf("%w: ...", kind).
package apperr

import "errors"

var (
	// ErrUnauthenticated indicates the workflow was invoked without a user identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable indicates a transient data store failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrWriteConflict indicates a conditional write lost a race.
	// Callers should retry the whole logical operation.
	ErrWriteConflict = errors.New("write conflict")
)
