package circulation

import (
	"time"

	"github.com/google/uuid"
)

// TitleStatus is the availability tag of a title.
type TitleStatus string

// Title statuses. AVAILABLE, BORROWED and RESERVED are derived by the
// availability state machine; MAINTENANCE and LOST are administrative.
const (
	TitleAvailable   TitleStatus = "AVAILABLE"
	TitleBorrowed    TitleStatus = "BORROWED"
	TitleReserved    TitleStatus = "RESERVED"
	TitleMaintenance TitleStatus = "MAINTENANCE"
	TitleLost        TitleStatus = "LOST"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

// Loan statuses. A loan is born ACTIVE and ends as RETURNED or LOST;
// OVERDUE is derived by the periodic sweep, not a terminal state.
const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanReturned LoanStatus = "RETURNED"
	LoanOverdue  LoanStatus = "OVERDUE"
	LoanLost     LoanStatus = "LOST"
)

// HoldStatus is the lifecycle state of a hold.
type HoldStatus string

// Hold statuses. A hold is born PENDING (or READY when a copy is free at
// creation time) and terminates as COMPLETED, CANCELLED or EXPIRED.
const (
	HoldPending   HoldStatus = "PENDING"
	HoldReady     HoldStatus = "READY"
	HoldCompleted HoldStatus = "COMPLETED"
	HoldCancelled HoldStatus = "CANCELLED"
	HoldExpired   HoldStatus = "EXPIRED"
)

// Title is the circulation view of a catalog entry: copy counts, the derived
// availability status and the optimistic-concurrency version. Catalog metadata
// (name, author, ISBN, ...) is owned elsewhere and never touched here.
type Title struct {
	ID              uuid.UUID
	TotalCopies     int
	AvailableCopies int
	Status          TitleStatus
	Version         uint
}

// InCirculation reports whether the title accepts loans and holds at all.
// MAINTENANCE and LOST block both until reverted.
func (t Title) InCirculation() bool {
	return t.Status != TitleMaintenance && t.Status != TitleLost
}

// Loan records one copy being held by one holder for a bounded period.
// Loans are never deleted; terminal states are RETURNED and LOST.
type Loan struct {
	ID           uuid.UUID
	TitleID      uuid.UUID
	HolderID     uuid.UUID
	LoanDate     time.Time
	DueDate      time.Time
	ReturnDate   *time.Time
	Status       LoanStatus
	RenewalCount int
	Notes        string
}

// IsOpen reports whether the loan still binds a copy (ACTIVE or OVERDUE).
func (l Loan) IsOpen() bool {
	return l.Status == LoanActive || l.Status == LoanOverdue
}

// IsOverdueAsOf reports whether the loan should block new borrowing as of the
// given time: either the sweep already marked it OVERDUE, or it is ACTIVE and
// past due and the sweep simply has not run yet.
func (l Loan) IsOverdueAsOf(asOf time.Time) bool {
	if l.Status == LoanOverdue {
		return true
	}

	return l.Status == LoanActive && l.DueDate.Before(asOf)
}

// Hold is a queued request for a copy of a title that is not currently
// available. QueuePosition is only meaningful for PENDING holds, where the
// positions of a title form the contiguous sequence 1..N.
type Hold struct {
	ID            uuid.UUID
	TitleID       uuid.UUID
	HolderID      uuid.UUID
	RequestedAt   time.Time
	ExpiryDate    time.Time
	Status        HoldStatus
	QueuePosition int
}

// IsOpen reports whether the hold still occupies a queue slot or a reserved
// copy (PENDING or READY).
func (h Hold) IsOpen() bool {
	return h.Status == HoldPending || h.Status == HoldReady
}
