package setmaintenance

import (
	"fmt"

	"github.com/openshelf/circulate/circulation"
)

const (
	reasonLost           = "a lost title cannot enter maintenance"
	reasonAlreadyInMaint = "title is already under maintenance"
	reasonNotInMaint     = "only a title under maintenance can be reinstated"
)

// Decide implements the business logic for the administrative status
// override. This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A title snapshot
//	WHEN: a maintenance command is received
//	THEN: the title becomes MAINTENANCE, or on reinstate its status is
//	      recomputed from copy counts and queue state; a copy freed during
//	      maintenance goes to the front of the queue on reinstate
//	ERROR: ErrInvalidState if withdrawing a LOST or already-maintained title,
//	       or reinstating a title that is not under maintenance
func Decide(snapshot circulation.TitleContext, command Command, rules circulation.Rules) circulation.DecisionResult {
	if command.Reinstate {
		return decideReinstate(snapshot, command, rules)
	}

	title := snapshot.Title

	if title.Status == circulation.TitleLost {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonLost))
	}

	if title.Status == circulation.TitleMaintenance {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonAlreadyInMaint))
	}

	title.Status = circulation.TitleMaintenance

	return circulation.SuccessDecision(circulation.ChangeSet{Title: &title})
}

func decideReinstate(snapshot circulation.TitleContext, command Command, rules circulation.Rules) circulation.DecisionResult {
	title := snapshot.Title

	if title.Status != circulation.TitleMaintenance {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNotInMaint))
	}

	changes := circulation.ChangeSet{}
	holds := snapshot.Holds

	// Promotion pauses while the title is out of circulation, so a copy freed
	// during maintenance may still owe the queue a promotion.
	if title.AvailableCopies > 0 && snapshot.ReadyHold() == nil {
		promoted, queueUpdates := circulation.PromoteNext(holds, command.OccurredAt, rules.ReadyHoldExpiryDays)
		if promoted != nil {
			title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies-1, title.TotalCopies)
			changes.Promoted = promoted
			changes.UpdatedHolds = queueUpdates
			holds = circulation.MergeHoldUpdates(holds, queueUpdates...)
		}
	}

	// Clear the administrative tag first so the recompute is free to derive
	// the status from copies and queue state again.
	title.Status = circulation.TitleBorrowed
	title.Status = circulation.RecomputeStatus(title, holds)

	changes.Title = &title

	return circulation.SuccessDecision(changes)
}
