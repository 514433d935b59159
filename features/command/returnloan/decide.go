package returnloan

import (
	"fmt"

	"github.com/openshelf/circulate/circulation"
)

const reasonNotOpen = "loan is already returned or lost"

// Decide implements the business logic for returning a loan. This is a pure
// function with no side effects - it takes the current title snapshot and a
// command and returns the change set that should be committed.
//
// Business Rules:
//
//	GIVEN: A loan in the title snapshot
//	WHEN: a return command is received
//	THEN: the loan becomes RETURNED with returnDate set, the copy count is
//	      incremented, and the next PENDING hold (if any) is promoted to READY
//	      with the returned copy held back for its holder
//	ERROR: ErrNotFound if the loan is not part of the snapshot
//	ERROR: ErrInvalidState if the loan is not ACTIVE or OVERDUE
func Decide(snapshot circulation.TitleContext, command Command, rules circulation.Rules) circulation.DecisionResult {
	loan := snapshot.LoanByID(command.LoanID)
	if loan == nil {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: loan %s", circulation.ErrNotFound, command.LoanID))
	}

	if !loan.IsOpen() {
		return circulation.ErrorDecision(
			fmt.Errorf("%w: %s", circulation.ErrInvalidState, reasonNotOpen))
	}

	returned := *loan
	returnDate := command.OccurredAt
	returned.ReturnDate = &returnDate
	returned.Status = circulation.LoanReturned
	returned.Notes = appendNote(returned.Notes, "returned", command.Notes)

	title := snapshot.Title
	title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies+1, title.TotalCopies)

	changes := circulation.ChangeSet{
		UpdatedLoans: []circulation.Loan{returned},
	}

	// At most one READY hold may reserve a copy at a time; with multiple
	// copies a title can already be RESERVED while another loan comes back.
	var promoted *circulation.Hold
	var holdUpdates []circulation.Hold
	if snapshot.ReadyHold() == nil {
		promoted, holdUpdates = circulation.PromoteNext(snapshot.Holds, command.OccurredAt, rules.ReadyHoldExpiryDays)
	}
	if promoted != nil {
		// The promoted hold claims the copy that just came back.
		title.AvailableCopies = circulation.ClampCopies(title.AvailableCopies-1, title.TotalCopies)
		changes.Promoted = promoted
		changes.UpdatedHolds = holdUpdates
	}

	title.Status = circulation.RecomputeStatus(title, circulation.MergeHoldUpdates(snapshot.Holds, holdUpdates...))
	changes.Title = &title

	return circulation.SuccessDecision(changes)
}

func appendNote(existing string, label string, note string) string {
	if note == "" {
		return existing
	}
	if existing == "" {
		return label + ": " + note
	}

	return existing + "\n" + label + ": " + note
}
