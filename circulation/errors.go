package circulation

import (
	"errors"
)

// The error taxonomy of the engine. Every rule violation is detected before
// any mutation is applied and returned synchronously as one of these wrapped
// sentinels; nothing is silently corrected.
var (
	// ErrNotFound indicates an unknown title, loan, hold or holder id.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidState indicates an operation that is not valid for the current
	// status, e.g. returning an already-RETURNED loan.
	ErrInvalidState = errors.New("operation not valid for current status")

	// ErrLimitExceeded indicates a violated limit rule (max loans, max holds,
	// renewal cap, overdue block, renewal blocked by waiting queue).
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrDuplicateOperation indicates a duplicate loan or hold for the same
	// title and holder.
	ErrDuplicateOperation = errors.New("duplicate operation")

	// ErrConflict indicates a concurrent mutation detected by the storage
	// layer's version check. It is the only error a caller should retry;
	// re-submission of the same intent is safe.
	ErrConflict = errors.New("concurrent modification conflict, no rows were affected")
)
