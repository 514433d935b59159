package cancelhold

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openshelf/circulate/circulation"
)

const (
	reasonNotOpen  = "hold is already completed, cancelled or expired"
	reasonNotOwner = "hold belongs to a different holder"
)

// Decide implements the business logic for cancelling a hold. This is a pure
// function with no side effects.
//
// Business Rules:
//
//	GIVEN: A hold in the title snapshot
//	WHEN: a cancel command is received
//	THEN: the hold becomes CANCELLED and the remaining PENDING holds are
//	      renumbered to close the gap; cancelling a READY hold releases its
//	      reserved copy and promotes the next PENDING hold
//	ERROR: ErrNotFound if the hold is not part of the snapshot
//	ERROR: ErrInvalidState if the hold is not PENDING/READY, or the command
//	       names a holder other than the hold's owner
func Decide(snapshot circulation.TitleContext, command Command, rules circulation.Rules) circulation.DecisionResult {
	hold := snapshot.HoldByID(command.HoldID)
	if hold == nil {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: hold %s", circulation.ErrNotFound, command.HoldID))
	}

	if !hold.IsOpen() {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNotOpen))
	}

	if command.ByHolderID != nil && *command.ByHolderID != hold.HolderID {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNotOwner))
	}

	wasReady := hold.Status == circulation.HoldReady

	cancelled := *hold
	cancelled.Status = circulation.HoldCancelled
	cancelled.QueuePosition = 0

	title := snapshot.Title
	remaining := withoutHold(snapshot.Holds, cancelled.ID)

	changes := circulation.ChangeSet{
		UpdatedHolds: []circulation.Hold{cancelled},
	}

	var queueUpdates []circulation.Hold

	if wasReady {
		// The reserved copy comes back and immediately goes to the next in
		// line, if anyone is waiting. While the title is out of circulation
		// promotion pauses: a READY hold would only burn its pickup window
		// with borrowing blocked. Reinstating promotes instead.
		title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies+1, title.TotalCopies)

		if title.InCirculation() {
			var promoted *circulation.Hold
			promoted, queueUpdates = circulation.PromoteNext(remaining, command.OccurredAt, rules.ReadyHoldExpiryDays)
			if promoted != nil {
				title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies-1, title.TotalCopies)
				changes.Promoted = promoted
			}
		}
	} else {
		queueUpdates = circulation.RenumberPending(remaining)
	}

	changes.UpdatedHolds = circulation.MergeHoldUpdates(changes.UpdatedHolds, queueUpdates...)

	title.Status = circulation.RecomputeStatus(title, circulation.MergeHoldUpdates(remaining, queueUpdates...))
	changes.Title = &title

	return circulation.SuccessDecision(changes)
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
