package circulation

import (
	"sort"
	"time"
)

// Queue order is FIFO by arrival: QueuePosition is assigned monotonically at
// creation and renumbered to stay contiguous whenever a PENDING hold leaves
// the queue. Ties (equal positions can only appear transiently) break by the
// earlier RequestedAt. There is no priority weighting by holder role.

// NextQueuePosition returns the position for a newly queued hold:
// max(existing PENDING positions) + 1.
func NextQueuePosition(holds []Hold) int {
	next := 1
	for _, hold := range holds {
		if hold.Status == HoldPending && hold.QueuePosition >= next {
			next = hold.QueuePosition + 1
		}
	}

	return next
}

// RenumberPending closes gaps in the queue: the PENDING holds of the given
// slice are ordered by (QueuePosition, RequestedAt) and assigned the exact
// sequence 1..N. Only holds whose position actually changed are returned.
func RenumberPending(holds []Hold) []Hold {
	pending := make([]Hold, 0, len(holds))
	for _, hold := range holds {
		if hold.Status == HoldPending {
			pending = append(pending, hold)
		}
	}

	sortQueue(pending)

	changed := make([]Hold, 0, len(pending))
	for i := range pending {
		if pending[i].QueuePosition != i+1 {
			pending[i].QueuePosition = i + 1
			changed = append(changed, pending[i])
		}
	}

	return changed
}

// PromoteNext advances the front of the queue: the PENDING hold with the
// smallest QueuePosition (ties by earliest RequestedAt) becomes READY with a
// fresh pickup window of readyExpiryDays, leaves the numbering, and the
// remaining PENDING holds are renumbered. Returns the promoted hold (nil if
// the queue is empty) and every hold that changed, promoted one included.
//
// This is the sole mutator of queue order besides cancellation and expiry.
func PromoteNext(holds []Hold, asOf time.Time, readyExpiryDays int) (*Hold, []Hold) {
	pending := make([]Hold, 0, len(holds))
	for _, hold := range holds {
		if hold.Status == HoldPending {
			pending = append(pending, hold)
		}
	}

	if len(pending) == 0 {
		return nil, nil
	}

	sortQueue(pending)

	promoted := pending[0]
	promoted.Status = HoldReady
	promoted.ExpiryDate = asOf.AddDate(0, 0, readyExpiryDays)
	promoted.QueuePosition = 0

	updated := []Hold{promoted}
	for i := range pending[1:] {
		follower := pending[i+1]
		if follower.QueuePosition != i+1 {
			follower.QueuePosition = i + 1
			updated = append(updated, follower)
		}
	}

	return &promoted, updated
}

// MergeHoldUpdates combines hold updates from successive queue operations,
// keeping the latest version of each hold by id and preserving order of first
// appearance.
func MergeHoldUpdates(updates []Hold, more ...Hold) []Hold {
	merged := make([]Hold, len(updates))
	copy(merged, updates)

	for _, update := range more {
		replaced := false
		for i := range merged {
			if merged[i].ID == update.ID {
				merged[i] = update
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, update)
		}
	}

	return merged
}

func sortQueue(pending []Hold) {
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].QueuePosition != pending[j].QueuePosition {
			return pending[i].QueuePosition < pending[j].QueuePosition
		}

		return pending[i].RequestedAt.Before(pending[j].RequestedAt)
	})
}
