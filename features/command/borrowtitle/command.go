package borrowtitle

import (
	"time"

	"github.com/google/uuid"
)

// Command carries the intent to borrow a copy of a title.
// PeriodDays may be zero to use the configured default loan period.
type Command struct {
	TitleID    uuid.UUID
	HolderID   uuid.UUID
	PeriodDays int
	OccurredAt time.Time
}

// BuildCommand creates a borrow command.
func BuildCommand(titleID uuid.UUID, holderID uuid.UUID, periodDays int, occurredAt time.Time) Command {
	return Command{
		TitleID:    titleID,
		HolderID:   holderID,
		PeriodDays: periodDays,
		OccurredAt: occurredAt,
	}
}
