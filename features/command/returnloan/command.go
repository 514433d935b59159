package returnloan

import (
	"time"

	"github.com/google/uuid"
)

// Command carries the intent to return a borrowed copy.
// Notes, when present, are appended to the loan record.
type Command struct {
	LoanID     uuid.UUID
	Notes      string
	OccurredAt time.Time
}

// BuildCommand creates a return command.
func BuildCommand(loanID uuid.UUID, notes string, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		Notes:      notes,
		OccurredAt: occurredAt,
	}
}
