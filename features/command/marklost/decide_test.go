package marklost_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/features/command/marklost"
)

func Test_Decide_Success_LoanAndTitleBecomeLost(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenOpenLoan(t, circulation.LoanActive, now)
	snapshot := givenSnapshot(t, loan)

	command := marklost.BuildCommand(loan.ID, "never came back", now)

	// act
	result := marklost.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	require.Len(t, result.Changes.UpdatedLoans, 1)
	assert.Equal(t, circulation.LoanLost, result.Changes.UpdatedLoans[0].Status)
	assert.Contains(t, result.Changes.UpdatedLoans[0].Notes, "never came back")

	// the copy is gone for good, counts stay untouched
	assert.Equal(t, circulation.TitleLost, result.Changes.Title.Status)
	assert.Equal(t, snapshot.Title.AvailableCopies, result.Changes.Title.AvailableCopies)
}

func Test_Decide_Success_OverdueLoanCanBeMarkedLost(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenOpenLoan(t, circulation.LoanOverdue, now)
	snapshot := givenSnapshot(t, loan)

	// act
	result := marklost.Decide(snapshot, marklost.BuildCommand(loan.ID, "", now), circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	assert.Equal(t, circulation.LoanLost, result.Changes.UpdatedLoans[0].Status)
}

func Test_Decide_BusinessErrors(t *testing.T) {
	now := time.Now()

	t.Run("unknown loan", func(t *testing.T) {
		snapshot := givenSnapshot(t, givenOpenLoan(t, circulation.LoanActive, now))
		result := marklost.Decide(snapshot, marklost.BuildCommand(uuid.New(), "", now), circulation.DefaultRules())
		assert.ErrorIs(t, result.HasError(), circulation.ErrNotFound)
	})

	t.Run("returned loan cannot be marked lost", func(t *testing.T) {
		loan := givenOpenLoan(t, circulation.LoanReturned, now)
		snapshot := givenSnapshot(t, loan)
		result := marklost.Decide(snapshot, marklost.BuildCommand(loan.ID, "", now), circulation.DefaultRules())
		assert.ErrorIs(t, result.HasError(), circulation.ErrInvalidState)
	})
}

func givenOpenLoan(t *testing.T, status circulation.LoanStatus, now time.Time) circulation.Loan {
	t.Helper()

	loanDate := now.Add(-30 * 24 * time.Hour)

	return circulation.Loan{
		ID:       uuid.New(),
		TitleID:  uuid.New(),
		HolderID: uuid.New(),
		LoanDate: loanDate,
		DueDate:  loanDate.AddDate(0, 0, 14),
		Status:   status,
	}
}

func givenSnapshot(t *testing.T, loan circulation.Loan) circulation.TitleContext {
	t.Helper()

	return circulation.TitleContext{
		Title: circulation.Title{
			ID:              loan.TitleID,
			TotalCopies:     1,
			AvailableCopies: 0,
			Status:          circulation.TitleBorrowed,
			Version:         1,
		},
		Loans: []circulation.Loan{loan},
	}
}
