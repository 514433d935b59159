package setmaintenance

import (
	"time"

	"github.com/google/uuid"
)

// Command carries the intent to withdraw a title into maintenance, or to
// reinstate it when Reinstate is set.
type Command struct {
	TitleID    uuid.UUID
	Reinstate  bool
	OccurredAt time.Time
}

// BuildCommand creates a withdraw-into-maintenance command.
func BuildCommand(titleID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		TitleID:    titleID,
		OccurredAt: occurredAt,
	}
}

// BuildReinstateCommand creates a command that puts a maintained title back
// into circulation.
func BuildReinstateCommand(titleID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		TitleID:    titleID,
		Reinstate:  true,
		OccurredAt: occurredAt,
	}
}
