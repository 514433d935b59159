package expiredholds

import (
	"time"

	"github.com/openshelf/circulate/circulation"
)

// Decide expires every open hold of the snapshot whose expiry date lies
// before asOf. An expired READY hold releases its reserved copy, which goes
// straight to the next PENDING holder if anyone is waiting; expired PENDING
// holds leave the queue and the survivors are renumbered. Pure; returns an
// idempotent decision when nothing expired.
func Decide(snapshot circulation.TitleContext, asOf time.Time, rules circulation.Rules) circulation.DecisionResult {
	var expired []circulation.Hold
	remaining := make([]circulation.Hold, 0, len(snapshot.Holds))
	readyFreed := false

	for _, hold := range snapshot.Holds {
		if hold.IsOpen() && hold.ExpiryDate.Before(asOf) {
			gone := hold
			gone.Status = circulation.HoldExpired
			gone.QueuePosition = 0
			expired = append(expired, gone)

			if hold.Status == circulation.HoldReady {
				readyFreed = true
			}

			continue
		}

		remaining = append(remaining, hold)
	}

	if len(expired) == 0 {
		return circulation.IdempotentDecision()
	}

	title := snapshot.Title
	changes := circulation.ChangeSet{UpdatedHolds: expired}

	var queueUpdates []circulation.Hold

	if readyFreed {
		// While the title is out of circulation promotion pauses: a READY
		// hold would only burn its pickup window with borrowing blocked.
		// Reinstating promotes instead.
		title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies+1, title.TotalCopies)

		if title.InCirculation() {
			var promoted *circulation.Hold
			promoted, queueUpdates = circulation.PromoteNext(remaining, asOf, rules.ReadyHoldExpiryDays)
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
