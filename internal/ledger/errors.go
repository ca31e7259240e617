package ledger

import "errors"

// Domain errors for the ledger.
var (
	// ErrDispatchNotFound is returned when a run ID has no row.
	ErrDispatchNotFound = errors.New("ledger: dispatch not found")

	// ErrRunIDRequired is returned when recording a dispatch without a run ID.
	ErrRunIDRequired = errors.New("ledger: run id is required")
)
