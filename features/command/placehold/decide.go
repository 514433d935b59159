package placehold

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
)

const (
	reasonNotInCirculation = "title is withdrawn from circulation"
	reasonBorrowDirectly   = "a copy is available, borrow it instead of holding"
	reasonAlreadyBorrowing = "holder already has this title on loan"
	reasonAlreadyHolding   = "holder already has an open hold on this title"
	reasonTooManyHolds     = "holder has reached the concurrent hold limit"
)

// Decide implements the business logic that determines whether a hold should
// be created. This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A title with TitleID and holder with HolderID
//	WHEN: a place-hold command is received
//	THEN: a PENDING hold is appended at the back of the queue; if a copy is
//	      free at decision time and nothing reserves it yet (race with a
//	      concurrent return), the hold is created READY instead and the copy
//	      is held back
//	ERROR: ErrInvalidState if the title is in MAINTENANCE/LOST or is AVAILABLE
//	       (a free copy must be borrowed directly)
//	ERROR: ErrDuplicateOperation if the holder already has an open hold here
//	ERROR: ErrLimitExceeded if the holder already borrows this title, the hold
//	       limit is reached, or the requested expiry is out of range
func Decide(snapshot circulation.TitleContext, command Command, rules circulation.Rules) circulation.DecisionResult {
	expiryDays, err := rules.HoldExpiry(command.ExpiryDays)
	if err != nil {
		return circulation.ErrorDecision(err)
	}

	title := snapshot.Title

	if !title.InCirculation() {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNotInCirculation))
	}

	if title.Status == circulation.TitleAvailable {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonBorrowDirectly))
	}

	if snapshot.OpenHoldFor(command.HolderID) != nil {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrDuplicateOperation, reasonAlreadyHolding))
	}

	if snapshot.OpenLoanFor(command.HolderID) != nil {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrLimitExceeded, reasonAlreadyBorrowing))
	}

	if snapshot.Holder.OpenHoldCount >= rules.MaxOpenHolds {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s (%d)", circulation.ErrLimitExceeded, reasonTooManyHolds, rules.MaxOpenHolds))
	}

	hold := circulation.Hold{
		ID:          uuid.New(),
		TitleID:     command.TitleID,
		HolderID:    command.HolderID,
		RequestedAt: command.OccurredAt,
	}

	// A copy freed by a return that has not flipped the status yet goes
	// straight to this holder instead of entering the queue.
	if title.AvailableCopies > 0 && snapshot.ReadyHold() == nil {
		hold.Status = circulation.HoldReady
		hold.ExpiryDate = command.OccurredAt.AddDate(0, 0, rules.ReadyHoldExpiryDays)
		title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies-1, title.TotalCopies)
	} else {
		hold.Status = circulation.HoldPending
		hold.ExpiryDate = command.OccurredAt.AddDate(0, 0, expiryDays)
		hold.QueuePosition = circulation.NextQueuePosition(snapshot.Holds)
	}

	title.Status = circulation.RecomputeStatus(title, append(snapshot.Holds, hold))

	return circulation.SuccessDecision(circulation.ChangeSet{
		Title:   &title,
		NewHold: &hold,
	})
}
