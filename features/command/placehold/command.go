package placehold

import (
	"time"

	"github.com/google/uuid"
)

// Command carries the intent to place a hold on a title.
// ExpiryDays may be zero to use the configured default hold lifetime.
type Command struct {
	TitleID    uuid.UUID
	HolderID   uuid.UUID
	ExpiryDays int
	OccurredAt time.Time
}

// BuildCommand creates a place-hold command.
func BuildCommand(titleID uuid.UUID, holderID uuid.UUID, expiryDays int, occurredAt time.Time) Command {
	return Command{
		TitleID:    titleID,
		HolderID:   holderID,
		ExpiryDays: expiryDays,
		OccurredAt: occurredAt,
	}
}
