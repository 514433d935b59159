package extendloan

import (
	"time"

	"github.com/google/uuid"
)

// Command carries the intent to extend a loan.
// ExtensionDays may be zero to use the configured default extension.
type Command struct {
	LoanID        uuid.UUID
	ExtensionDays int
	OccurredAt    time.Time
}

// BuildCommand creates an extend command.
func BuildCommand(loanID uuid.UUID, extensionDays int, occurredAt time.Time) Command {
	return Command{
		LoanID:        loanID,
		ExtensionDays: extensionDays,
		OccurredAt:    occurredAt,
	}
}
