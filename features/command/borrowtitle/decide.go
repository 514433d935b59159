package borrowtitle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
)

const (
	reasonNotInCirculation = "title is withdrawn from circulation"
	reasonNoCopyAvailable  = "no copy is available"
	reasonReservedForOther = "title is reserved for the next holder in the queue"
	reasonAlreadyBorrowing = "holder already has this title on loan"
	reasonTooManyLoans     = "holder has reached the concurrent loan limit"
	reasonOverdueBlock     = "holder has overdue loans blocking new borrowing"
)

// Decide implements the business logic that determines whether a loan should
// be created. This is a pure function with no side effects - it takes the
// current title snapshot and a command and returns the change set that should
// be committed based on the business rules.
//
// Business Rules:
//
//	GIVEN: A title with TitleID and holder with HolderID
//	WHEN: a borrow command is received
//	THEN: an ACTIVE loan is created, a copy is consumed and the title status
//	      is recomputed; borrowing against one's own READY hold completes it,
//	      and a PENDING hold of the borrower is completed by the loan as well,
//	      with the queue renumbered
//	ERROR: ErrInvalidState if the title is in MAINTENANCE/LOST, has no free
//	       copy, or is reserved for another holder's READY hold
//	ERROR: ErrDuplicateOperation if the holder already borrows this title
//	ERROR: ErrLimitExceeded if the loan limit is reached, an overdue loan is
//	       open anywhere, or the requested period is out of range
func Decide(snapshot circulation.TitleContext, command Command, rules circulation.Rules) circulation.DecisionResult {
	period, err := rules.LoanPeriod(command.PeriodDays)
	if err != nil {
		return circulation.ErrorDecision(err)
	}

	if snapshot.OpenLoanFor(command.HolderID) != nil {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrDuplicateOperation, reasonAlreadyBorrowing))
	}

	title := snapshot.Title
	completedHold, stateErr := claimCopy(snapshot, command.HolderID)
	if stateErr != nil {
		return circulation.ErrorDecision(stateErr)
	}

	if snapshot.Holder.OverdueCount > 0 {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrLimitExceeded, reasonOverdueBlock))
	}

	if snapshot.Holder.ActiveLoanCount >= rules.MaxActiveLoans {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s (%d)", circulation.ErrLimitExceeded, reasonTooManyLoans, rules.MaxActiveLoans))
	}

	loan := circulation.Loan{
		ID:       uuid.New(),
		TitleID:  command.TitleID,
		HolderID: command.HolderID,
		LoanDate: command.OccurredAt,
		DueDate:  command.OccurredAt.AddDate(0, 0, period),
		Status:   circulation.LoanActive,
	}

	changes := circulation.ChangeSet{NewLoan: &loan}
	remainingHolds := snapshot.Holds
	waitingHold := snapshot.OpenHoldFor(command.HolderID)

	switch {
	case completedHold != nil:
		// The reserved copy was already held back from AvailableCopies when the
		// hold was promoted, so the counts stay untouched here.
		done := *completedHold
		done.Status = circulation.HoldCompleted
		done.QueuePosition = 0
		changes.UpdatedHolds = []circulation.Hold{done}
		remainingHolds = withoutHold(snapshot.Holds, done.ID)

	case waitingHold != nil:
		// A queued holder takes a spare copy: the loan fulfils the PENDING
		// hold, so it closes and the queue is renumbered. A holder never has a
		// loan and an open hold on the same title at once.
		done := *waitingHold
		done.Status = circulation.HoldCompleted
		done.QueuePosition = 0
		remainingHolds = withoutHold(snapshot.Holds, done.ID)
		queueUpdates := circulation.RenumberPending(remainingHolds)
		changes.UpdatedHolds = circulation.MergeHoldUpdates([]circulation.Hold{done}, queueUpdates...)
		remainingHolds = circulation.MergeHoldUpdates(remainingHolds, queueUpdates...)
		title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies-1, title.TotalCopies)

	default:
		title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies-1, title.TotalCopies)
	}

	title.Status = circulation.RecomputeStatus(title, remainingHolds)
	changes.Title = &title

	return circulation.SuccessDecision(changes)
}

// claimCopy checks that the title status permits borrowing for this holder and
// returns the READY hold being redeemed, if that is how the copy is claimed.
func claimCopy(snapshot circulation.TitleContext, holderID uuid.UUID) (*circulation.Hold, error) {
	title := snapshot.Title

	if !title.InCirculation() {
		return nil, fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNotInCirculation)
	}

	switch title.Status {
	case circulation.TitleAvailable:
		if title.AvailableCopies <= 0 {
			return nil, fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNoCopyAvailable)
		}

		return nil, nil

	case circulation.TitleReserved:
		ready := snapshot.ReadyHold()
		if ready != nil && ready.HolderID == holderID {
			return ready, nil
		}

		// A spare copy may still be free even while one is reserved.
		if title.AvailableCopies > 0 {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonReservedForOther)

	default:
		return nil, fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNoCopyAvailable)
	}
}

func withoutHold(holds []circulation.Hold, holdID uuid.UUID) []circulation.Hold {
	remaining := make([]circulation.Hold, 0, len(holds))
	for _, hold := range holds {
		if hold.ID != holdID {
			remaining = append(remaining, hold)
		}
	}

	return remaining
}
