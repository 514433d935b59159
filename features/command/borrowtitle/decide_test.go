package borrowtitle_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/features/command/borrowtitle"
)

func Test_Decide_Success_WhenCopyIsAvailable(t *testing.T) {
	// arrange
	titleID := uuid.New()
	holderID := uuid.New()
	now := time.Now()

	snapshot := givenSnapshot(t, givenTitle(t, titleID, 2, 2, circulation.TitleAvailable), holderID)
	command := borrowtitle.BuildCommand(titleID, holderID, 0, now)

	// act
	result := borrowtitle.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	require.NotNil(t, result.Changes.NewLoan)
	assert.Equal(t, circulation.LoanActive, result.Changes.NewLoan.Status)
	assert.Equal(t, now.AddDate(0, 0, circulation.DefaultLoanPeriodDays), result.Changes.NewLoan.DueDate)
	assert.Equal(t, 1, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleAvailable, result.Changes.Title.Status)
}

func Test_Decide_Success_LastCopyFlipsTitleToBorrowed(t *testing.T) {
	// arrange
	titleID := uuid.New()
	holderID := uuid.New()
	now := time.Now()

	snapshot := givenSnapshot(t, givenTitle(t, titleID, 1, 1, circulation.TitleAvailable), holderID)
	command := borrowtitle.BuildCommand(titleID, holderID, 14, now)

	// act
	result := borrowtitle.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	assert.Equal(t, 0, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleBorrowed, result.Changes.Title.Status)
}

func Test_Decide_Success_WhenBorrowingAgainstOwnReadyHold(t *testing.T) {
	// arrange
	titleID := uuid.New()
	holderID := uuid.New()
	now := time.Now()

	hold := circulation.Hold{
		ID:          uuid.New(),
		TitleID:     titleID,
		HolderID:    holderID,
		RequestedAt: now.Add(-48 * time.Hour),
		ExpiryDate:  now.AddDate(0, 0, 2),
		Status:      circulation.HoldReady,
	}

	snapshot := givenSnapshot(t, givenTitle(t, titleID, 1, 0, circulation.TitleReserved), holderID)
	snapshot.Holds = []circulation.Hold{hold}
	snapshot.Holder.OpenHoldCount = 1

	command := borrowtitle.BuildCommand(titleID, holderID, 0, now)

	// act
	result := borrowtitle.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	require.Len(t, result.Changes.UpdatedHolds, 1)
	assert.Equal(t, circulation.HoldCompleted, result.Changes.UpdatedHolds[0].Status)

	// the reserved copy was already held back, counts stay untouched
	assert.Equal(t, 0, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleBorrowed, result.Changes.Title.Status)
}

func Test_Decide_Success_SpareCopyOnReservedTitle(t *testing.T) {
	// arrange
	titleID := uuid.New()
	holderID := uuid.New()
	otherHolder := uuid.New()
	now := time.Now()

	readyForOther := circulation.Hold{
		ID:          uuid.New(),
		TitleID:     titleID,
		HolderID:    otherHolder,
		RequestedAt: now.Add(-24 * time.Hour),
		ExpiryDate:  now.AddDate(0, 0, 2),
		Status:      circulation.HoldReady,
	}

	snapshot := givenSnapshot(t, givenTitle(t, titleID, 3, 1, circulation.TitleReserved), holderID)
	snapshot.Holds = []circulation.Hold{readyForOther}

	command := borrowtitle.BuildCommand(titleID, holderID, 0, now)

	// act
	result := borrowtitle.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	assert.Equal(t, 0, result.Changes.Title.AvailableCopies)
	assert.Empty(t, result.Changes.UpdatedHolds)

	// the other holder's reservation survives
	assert.Equal(t, circulation.TitleReserved, result.Changes.Title.Status)
}

func Test_Decide_Success_SpareCopyCompletesTheBorrowersPendingHold(t *testing.T) {
	// arrange: another holder's reservation holds one copy back, a spare copy
	// is free, and the borrower is still waiting in the queue
	titleID := uuid.New()
	holderID := uuid.New()
	now := time.Now()

	readyForOther := circulation.Hold{
		ID:          uuid.New(),
		TitleID:     titleID,
		HolderID:    uuid.New(),
		RequestedAt: now.Add(-48 * time.Hour),
		ExpiryDate:  now.AddDate(0, 0, 2),
		Status:      circulation.HoldReady,
	}
	ownPending := circulation.Hold{
		ID:            uuid.New(),
		TitleID:       titleID,
		HolderID:      holderID,
		RequestedAt:   now.Add(-24 * time.Hour),
		ExpiryDate:    now.AddDate(0, 0, 5),
		Status:        circulation.HoldPending,
		QueuePosition: 1,
	}
	behind := circulation.Hold{
		ID:            uuid.New(),
		TitleID:       titleID,
		HolderID:      uuid.New(),
		RequestedAt:   now.Add(-12 * time.Hour),
		ExpiryDate:    now.AddDate(0, 0, 6),
		Status:        circulation.HoldPending,
		QueuePosition: 2,
	}

	snapshot := givenSnapshot(t, givenTitle(t, titleID, 2, 1, circulation.TitleReserved), holderID)
	snapshot.Holds = []circulation.Hold{readyForOther, ownPending, behind}
	snapshot.Holder.OpenHoldCount = 1

	command := borrowtitle.BuildCommand(titleID, holderID, 0, now)

	// act
	result := borrowtitle.Decide(snapshot, command, circulation.DefaultRules())

	// assert: the loan fulfils the waiting hold, never coexists with it
	require.True(t, result.HasChangesToCommit())
	require.NotNil(t, result.Changes.NewLoan)
	assert.Equal(t, holderID, result.Changes.NewLoan.HolderID)

	byID := map[uuid.UUID]circulation.Hold{}
	for _, hold := range result.Changes.UpdatedHolds {
		byID[hold.ID] = hold
	}

	require.Contains(t, byID, ownPending.ID)
	assert.Equal(t, circulation.HoldCompleted, byID[ownPending.ID].Status)
	assert.Equal(t, 0, byID[ownPending.ID].QueuePosition)

	// the queue closes the gap, the other reservation survives
	require.Contains(t, byID, behind.ID)
	assert.Equal(t, 1, byID[behind.ID].QueuePosition)
	assert.NotContains(t, byID, readyForOther.ID)

	assert.Equal(t, 0, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleReserved, result.Changes.Title.Status)
}

func Test_Decide_BusinessErrors(t *testing.T) {
	titleID := uuid.New()
	holderID := uuid.New()
	otherHolder := uuid.New()
	now := time.Now()

	testCases := []struct {
		name        string
		snapshot    circulation.TitleContext
		periodDays  int
		expectedErr error
	}{
		{
			name:        "title under maintenance",
			snapshot:    givenSnapshot(t, givenTitle(t, titleID, 1, 1, circulation.TitleMaintenance), holderID),
			expectedErr: circulation.ErrInvalidState,
		},
		{
			name:        "title lost",
			snapshot:    givenSnapshot(t, givenTitle(t, titleID, 1, 0, circulation.TitleLost), holderID),
			expectedErr: circulation.ErrInvalidState,
		},
		{
			name:        "no copy available",
			snapshot:    givenSnapshot(t, givenTitle(t, titleID, 1, 0, circulation.TitleBorrowed), holderID),
			expectedErr: circulation.ErrInvalidState,
		},
		{
			name: "reserved for another holder",
			snapshot: func() circulation.TitleContext {
				s := givenSnapshot(t, givenTitle(t, titleID, 1, 0, circulation.TitleReserved), holderID)
				s.Holds = []circulation.Hold{{
					ID:       uuid.New(),
					TitleID:  titleID,
					HolderID: otherHolder,
					Status:   circulation.HoldReady,
				}}
				return s
			}(),
			expectedErr: circulation.ErrInvalidState,
		},
		{
			name: "holder already borrows this title",
			snapshot: func() circulation.TitleContext {
				s := givenSnapshot(t, givenTitle(t, titleID, 2, 1, circulation.TitleAvailable), holderID)
				s.Loans = []circulation.Loan{{
					ID:       uuid.New(),
					TitleID:  titleID,
					HolderID: holderID,
					Status:   circulation.LoanActive,
					DueDate:  now.AddDate(0, 0, 7),
				}}
				s.Holder.ActiveLoanCount = 1
				return s
			}(),
			expectedErr: circulation.ErrDuplicateOperation,
		},
		{
			name: "loan limit reached",
			snapshot: func() circulation.TitleContext {
				s := givenSnapshot(t, givenTitle(t, titleID, 1, 1, circulation.TitleAvailable), holderID)
				s.Holder.ActiveLoanCount = circulation.DefaultMaxActiveLoans
				return s
			}(),
			expectedErr: circulation.ErrLimitExceeded,
		},
		{
			name: "overdue loan blocks all borrowing",
			snapshot: func() circulation.TitleContext {
				s := givenSnapshot(t, givenTitle(t, titleID, 1, 1, circulation.TitleAvailable), holderID)
				s.Holder.OverdueCount = 1
				return s
			}(),
			expectedErr: circulation.ErrLimitExceeded,
		},
		{
			name:        "loan period out of range",
			snapshot:    givenSnapshot(t, givenTitle(t, titleID, 1, 1, circulation.TitleAvailable), holderID),
			periodDays:  31,
			expectedErr: circulation.ErrLimitExceeded,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := borrowtitle.BuildCommand(titleID, holderID, tc.periodDays, now)

			// act
			result := borrowtitle.Decide(tc.snapshot, command, circulation.DefaultRules())

			// assert
			require.Error(t, result.HasError())
			assert.ErrorIs(t, result.HasError(), tc.expectedErr)
			assert.False(t, result.HasChangesToCommit())
		})
	}
}

func givenTitle(t *testing.T, titleID uuid.UUID, total int, available int, status circulation.TitleStatus) circulation.Title {
	t.Helper()

	return circulation.Title{
		ID:              titleID,
		TotalCopies:     total,
		AvailableCopies: available,
		Status:          status,
		Version:         1,
	}
}

func givenSnapshot(t *testing.T, title circulation.Title, holderID uuid.UUID) circulation.TitleContext {
	t.Helper()

	return circulation.TitleContext{
		Title:  title,
		Holder: circulation.HolderStats{ID: holderID},
	}
}
