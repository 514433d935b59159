package marklost

import (
	"fmt"

	"github.com/openshelf/circulate/circulation"
)

const reasonNotOpen = "only an active or overdue loan can be marked lost"

// Decide implements the business logic for marking a loan as lost. This is a
// pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A loan in the title snapshot
//	WHEN: a mark-lost command is received
//	THEN: the loan becomes LOST and the title leaves circulation as LOST;
//	      the copy counts stay untouched because the copy never came back
//	ERROR: ErrNotFound if the loan is not part of the snapshot
//	ERROR: ErrInvalidState if the loan is not ACTIVE or OVERDUE
func Decide(snapshot circulation.TitleContext, command Command, _ circulation.Rules) circulation.DecisionResult {
	loan := snapshot.LoanByID(command.LoanID)
	if loan == nil {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: loan %s", circulation.ErrNotFound, command.LoanID))
	}

	if !loan.IsOpen() {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNotOpen))
	}

	lost := *loan
	lost.Status = circulation.LoanLost
	if command.Notes != "" {
		if lost.Notes == "" {
			lost.Notes = "lost: " + command.Notes
		} else {
			lost.Notes = lost.Notes + "\nlost: " + command.Notes
		}
	}

	title := snapshot.Title
	title.Status = circulation.TitleLost

	return circulation.SuccessDecision(circulation.ChangeSet{
		Title:        &title,
		UpdatedLoans: []circulation.Loan{lost},
	})
}
