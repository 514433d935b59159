package extendloan

import (
	"fmt"

	"github.com/openshelf/circulate/circulation"
)

const (
	reasonNotActive    = "only an active loan can be extended"
	reasonRenewalCap   = "loan has reached the renewal cap"
	reasonQueueWaiting = "a waiting hold queue blocks renewal"
)

// Decide implements the business logic for extending a loan. This is a pure
// function with no side effects.
//
// Business Rules:
//
//	GIVEN: A loan in the title snapshot
//	WHEN: an extend command is received
//	THEN: dueDate moves out by the extension and renewalCount increments
//	ERROR: ErrNotFound if the loan is not part of the snapshot
//	ERROR: ErrInvalidState if the loan is not ACTIVE (overdue loans must be
//	       returned, not extended)
//	ERROR: ErrLimitExceeded if the renewal cap is reached, a PENDING hold
//	       exists on the title, or the requested extension is out of range
func Decide(snapshot circulation.TitleContext, command Command, rules circulation.Rules) circulation.DecisionResult {
	loan := snapshot.LoanByID(command.LoanID)
	if loan == nil {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: loan %s", circulation.ErrNotFound, command.LoanID))
	}

	if loan.Status != circulation.LoanActive {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNotActive))
	}

	days, err := rules.ExtensionPeriod(command.ExtensionDays)
	if err != nil {
		return circulation.ErrorDecision(err)
	}

	if loan.RenewalCount >= rules.MaxRenewals {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s (%d)", circulation.ErrLimitExceeded, reasonRenewalCap, rules.MaxRenewals))
	}

	if snapshot.HasPendingHolds() {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrLimitExceeded, reasonQueueWaiting))
	}

	extended := *loan
	extended.DueDate = extended.DueDate.AddDate(0, 0, days)
	extended.RenewalCount++

	// The title row is written unchanged: the version bump serializes the
	// extension against concurrent queue changes on the same title.
	title := snapshot.Title

	return circulation.SuccessDecision(circulation.ChangeSet{
		Title:        &title,
		UpdatedLoans: []circulation.Loan{extended},
	})
}
