package overdueloans

import (
	"time"

	"github.com/openshelf/circulate/circulation"
)

// Decide flips every ACTIVE loan of the snapshot whose due date lies before
// asOf to OVERDUE. Pure; returns an idempotent decision when nothing is due,
// so a second pass over the same window writes nothing.
func Decide(snapshot circulation.TitleContext, asOf time.Time) circulation.DecisionResult {
	var updated []circulation.Loan

	for _, loan := range snapshot.Loans {
		if loan.Status == circulation.LoanActive && loan.DueDate.Before(asOf) {
			overdue := loan
			overdue.Status = circulation.LoanOverdue
			updated = append(updated, overdue)
		}
	}

	if len(updated) == 0 {
		return circulation.IdempotentDecision()
	}

	// Status and copy counts are untouched; the title row is written only to
	// bump the version and serialize against concurrent mutations.
	title := snapshot.Title

	return circulation.SuccessDecision(circulation.ChangeSet{
		Title:        &title,
		UpdatedLoans: updated,
	})
}
