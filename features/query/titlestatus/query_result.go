package titlestatus

import (
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
)

// CurrentLoanSummary represents one open loan on the title at query time.
type CurrentLoanSummary struct {
	LoanID   uuid.UUID
	HolderID uuid.UUID
	LoanDate time.Time
	DueDate  time.Time
	Overdue  bool
}

// QueueEntry represents one open hold of the title's queue.
type QueueEntry struct {
	HoldID        uuid.UUID
	HolderID      uuid.UUID
	Status        circulation.HoldStatus
	QueuePosition int
	ExpiryDate    time.Time
}

// TitleStatus represents the query result: the title record plus its current
// loans and hold queue, assembled at read time.
type TitleStatus struct {
	Title        circulation.Title
	CurrentLoans []CurrentLoanSummary
	Queue        []QueueEntry
	QueueLength  int
}
