package shell

import (
	"context"

	"github.com/google/uuid"
)

// HolderDirectory is the identity lookup consumed by the engine. It is used
// only for existence validation, never for authorization decisions; those
// belong to the presentation layer in front of the engine.
type HolderDirectory interface {
	HolderExists(ctx context.Context, holderID uuid.UUID) (bool, error)
}

// HoldNotifier is the call-out invoked once per successful promotion of a hold
// to READY. It is best-effort and fire-and-forget: a failure to notify is
// logged by the caller and never rolls back the promotion.
type HoldNotifier interface {
	NotifyHoldReady(ctx context.Context, holderID uuid.UUID, titleID uuid.UUID) error
}
