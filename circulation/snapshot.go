package circulation

import (
	"github.com/google/uuid"
)

// TitleContext is the per-title snapshot a decision is made against: the title
// record, its open loans and open holds, and the cross-title statistics of the
// holder driving the operation. Storage engines assemble it in LoadTitleContext
// and the version carried by Title guards the subsequent commit.
type TitleContext struct {
	Title  Title
	Loans  []Loan // open loans (ACTIVE/OVERDUE) of this title
	Holds  []Hold // open holds (PENDING/READY) of this title, queue order
	Holder HolderStats
}

// HolderStats carries the holder-wide counters the limit rules need. They span
// all titles, not just the one in the snapshot. Zero-valued when the operation
// has no driving holder (administrative commands, sweeps).
type HolderStats struct {
	ID              uuid.UUID
	ActiveLoanCount int // ACTIVE loans across all titles
	OverdueCount    int // loans blocking new borrowing (OVERDUE, or ACTIVE past due)
	OpenHoldCount   int // PENDING/READY holds across all titles
}

// OpenLoanFor returns the holder's open loan on this title, or nil.
// There is at most one (invariant: one ACTIVE loan per title and holder).
func (s TitleContext) OpenLoanFor(holderID uuid.UUID) *Loan {
	for i := range s.Loans {
		if s.Loans[i].HolderID == holderID && s.Loans[i].IsOpen() {
			return &s.Loans[i]
		}
	}

	return nil
}

// LoanByID returns the loan with the given id from the snapshot, or nil.
func (s TitleContext) LoanByID(loanID uuid.UUID) *Loan {
	for i := range s.Loans {
		if s.Loans[i].ID == loanID {
			return &s.Loans[i]
		}
	}

	return nil
}

// ReadyHold returns the single READY hold reserving a copy, or nil.
func (s TitleContext) ReadyHold() *Hold {
	for i := range s.Holds {
		if s.Holds[i].Status == HoldReady {
			return &s.Holds[i]
		}
	}

	return nil
}

// OpenHoldFor returns the holder's PENDING or READY hold on this title, or nil.
func (s TitleContext) OpenHoldFor(holderID uuid.UUID) *Hold {
	for i := range s.Holds {
		if s.Holds[i].HolderID == holderID && s.Holds[i].IsOpen() {
			return &s.Holds[i]
		}
	}

	return nil
}

// HoldByID returns the hold with the given id from the snapshot, or nil.
func (s TitleContext) HoldByID(holdID uuid.UUID) *Hold {
	for i := range s.Holds {
		if s.Holds[i].ID == holdID {
			return &s.Holds[i]
		}
	}

	return nil
}

// PendingHolds returns the PENDING holds of the snapshot in queue order.
func (s TitleContext) PendingHolds() []Hold {
	pending := make([]Hold, 0, len(s.Holds))
	for _, hold := range s.Holds {
		if hold.Status == HoldPending {
			pending = append(pending, hold)
		}
	}

	return pending
}

// HasPendingHolds reports whether anyone is waiting in the queue.
func (s TitleContext) HasPendingHolds() bool {
	for _, hold := range s.Holds {
		if hold.Status == HoldPending {
			return true
		}
	}

	return false
}
