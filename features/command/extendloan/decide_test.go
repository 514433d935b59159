package extendloan_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/features/command/extendloan"
)

func Test_Decide_Success_DueDateMovesOutAndRenewalCounts(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenActiveLoan(t, now)
	snapshot := givenSnapshot(t, loan)

	command := extendloan.BuildCommand(loan.ID, 0, now)

	// act
	result := extendloan.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	require.Len(t, result.Changes.UpdatedLoans, 1)

	extended := result.Changes.UpdatedLoans[0]
	assert.Equal(t, loan.DueDate.AddDate(0, 0, circulation.DefaultExtensionDays), extended.DueDate)
	assert.Equal(t, 1, extended.RenewalCount)
	assert.Equal(t, circulation.LoanActive, extended.Status)
}

func Test_Decide_Success_ExplicitExtensionLength(t *testing.T) {
	// arrange
	now := time.Now()
	loan := givenActiveLoan(t, now)
	snapshot := givenSnapshot(t, loan)

	command := extendloan.BuildCommand(loan.ID, 3, now)

	// act
	result := extendloan.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	assert.Equal(t, loan.DueDate.AddDate(0, 0, 3), result.Changes.UpdatedLoans[0].DueDate)
}

func Test_Decide_BusinessErrors(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name        string
		prepare     func() (circulation.TitleContext, uuid.UUID)
		days        int
		expectedErr error
	}{
		{
			name: "unknown loan",
			prepare: func() (circulation.TitleContext, uuid.UUID) {
				return givenSnapshot(t, givenActiveLoan(t, now)), uuid.New()
			},
			expectedErr: circulation.ErrNotFound,
		},
		{
			name: "overdue loan cannot be extended",
			prepare: func() (circulation.TitleContext, uuid.UUID) {
				loan := givenActiveLoan(t, now)
				loan.Status = circulation.LoanOverdue
				return givenSnapshot(t, loan), loan.ID
			},
			expectedErr: circulation.ErrInvalidState,
		},
		{
			name: "renewal cap reached",
			prepare: func() (circulation.TitleContext, uuid.UUID) {
				loan := givenActiveLoan(t, now)
				loan.RenewalCount = circulation.DefaultMaxRenewals
				return givenSnapshot(t, loan), loan.ID
			},
			expectedErr: circulation.ErrLimitExceeded,
		},
		{
			name: "waiting hold queue blocks renewal",
			prepare: func() (circulation.TitleContext, uuid.UUID) {
				loan := givenActiveLoan(t, now)
				snapshot := givenSnapshot(t, loan)
				snapshot.Holds = []circulation.Hold{{
					ID:            uuid.New(),
					TitleID:       loan.TitleID,
					HolderID:      uuid.New(),
					Status:        circulation.HoldPending,
					QueuePosition: 1,
					ExpiryDate:    now.AddDate(0, 0, 6),
				}}
				return snapshot, loan.ID
			},
			expectedErr: circulation.ErrLimitExceeded,
		},
		{
			name: "extension out of range",
			prepare: func() (circulation.TitleContext, uuid.UUID) {
				loan := givenActiveLoan(t, now)
				return givenSnapshot(t, loan), loan.ID
			},
			days:        15,
			expectedErr: circulation.ErrLimitExceeded,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			snapshot, loanID := tc.prepare()
			command := extendloan.BuildCommand(loanID, tc.days, now)

			// act
			result := extendloan.Decide(snapshot, command, circulation.DefaultRules())

			// assert
			require.Error(t, result.HasError())
			assert.ErrorIs(t, result.HasError(), tc.expectedErr)
		})
	}
}

func givenActiveLoan(t *testing.T, now time.Time) circulation.Loan {
	t.Helper()

	loanDate := now.Add(-96 * time.Hour)

	return circulation.Loan{
		ID:       uuid.New(),
		TitleID:  uuid.New(),
		HolderID: uuid.New(),
		LoanDate: loanDate,
		DueDate:  loanDate.AddDate(0, 0, 14),
		Status:   circulation.LoanActive,
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
