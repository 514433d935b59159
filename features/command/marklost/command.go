package marklost

import (
	"time"

	"github.com/google/uuid"
)

// Command carries the intent to mark a loan as lost.
type Command struct {
	LoanID     uuid.UUID
	Notes      string
	OccurredAt time.Time
}

// BuildCommand creates a mark-lost command.
func BuildCommand(loanID uuid.UUID, notes string, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		Notes:      notes,
		OccurredAt: occurredAt,
	}
}
