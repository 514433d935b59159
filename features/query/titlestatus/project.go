package titlestatus

import (
	"sort"

	"github.com/openshelf/circulate/circulation"
)

// Project implements the projection logic that builds the composite from a
// title snapshot. This is a pure function with no side effects.
//
// The queue is ordered with the READY hold first (it is next to pick up),
// followed by the PENDING holds in queue order.
func Project(snapshot circulation.TitleContext, query Query) TitleStatus {
	result := TitleStatus{
		Title:        snapshot.Title,
		CurrentLoans: make([]CurrentLoanSummary, 0, len(snapshot.Loans)),
		Queue:        make([]QueueEntry, 0, len(snapshot.Holds)),
	}

	for _, loan := range snapshot.Loans {
		if !loan.IsOpen() {
			continue
		}

		result.CurrentLoans = append(result.CurrentLoans, CurrentLoanSummary{
			LoanID:   loan.ID,
			HolderID: loan.HolderID,
			LoanDate: loan.LoanDate,
			DueDate:  loan.DueDate,
			Overdue:  loan.IsOverdueAsOf(query.AsOf),
		})
	}

	for _, hold := range snapshot.Holds {
		if !hold.IsOpen() {
			continue
		}

		result.Queue = append(result.Queue, QueueEntry{
			HoldID:        hold.ID,
			HolderID:      hold.HolderID,
			Status:        hold.Status,
			QueuePosition: hold.QueuePosition,
			ExpiryDate:    hold.ExpiryDate,
		})
	}

	sort.SliceStable(result.Queue, func(i, j int) bool {
		if (result.Queue[i].Status == circulation.HoldReady) != (result.Queue[j].Status == circulation.HoldReady) {
			return result.Queue[i].Status == circulation.HoldReady
		}

		return result.Queue[i].QueuePosition < result.Queue[j].QueuePosition
	})

	result.QueueLength = len(result.Queue)

	return result
}
