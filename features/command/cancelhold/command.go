package cancelhold

import (
	"time"

	"github.com/google/uuid"
)

// Command carries the intent to cancel a hold. ByHolderID is optional: when
// set, the cancellation is accepted only from the hold's owner (self-service
// path); administrative cancellations leave it nil.
type Command struct {
	HoldID     uuid.UUID
	ByHolderID *uuid.UUID
	OccurredAt time.Time
}

// BuildCommand creates an administrative cancel command.
func BuildCommand(holdID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		HoldID:     holdID,
		OccurredAt: occurredAt,
	}
}

// BuildOwnerCommand creates a cancel command that enforces hold ownership.
func BuildOwnerCommand(holdID uuid.UUID, byHolderID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		HoldID:     holdID,
		ByHolderID: &byHolderID,
		OccurredAt: occurredAt,
	}
}
