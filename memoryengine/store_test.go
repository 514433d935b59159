package memoryengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/memoryengine"
)

func Test_AddTitle_RejectsDuplicates(t *testing.T) {
	// arrange
	store := memoryengine.NewStore()
	title := givenTitle(t, 1, 1)

	// act
	firstErr := store.AddTitle(title)
	secondErr := store.AddTitle(title)

	// assert
	require.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, circulation.ErrDuplicateOperation)
}

func Test_CommitTitleChange_VersionConflictWritesNothing(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	title := givenTitle(t, 2, 2)
	require.NoError(t, store.AddTitle(title))

	stale := title
	stale.AvailableCopies = 1

	// act: commit against a version the store has already moved past
	err := store.CommitTitleChange(ctx, title.Version+1, circulation.ChangeSet{Title: &stale})

	// assert
	require.ErrorIs(t, err, circulation.ErrConflict)

	current, findErr := store.FindTitle(ctx, title.ID)
	require.NoError(t, findErr)
	assert.Equal(t, title.AvailableCopies, current.AvailableCopies)
	assert.Equal(t, title.Version, current.Version)
}

func Test_CommitTitleChange_AppliesAllRecordsAndBumpsTheVersion(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.NewStore()
	title := givenTitle(t, 1, 1)
	require.NoError(t, store.AddTitle(title))

	now := time.Now()
	updated := title
	updated.AvailableCopies = 0
	updated.Status = circulation.TitleBorrowed

	loan := circulation.Loan{
		ID:       uuid.New(),
		TitleID:  title.ID,
		HolderID: uuid.New(),
		LoanDate: now,
		DueDate:  now.AddDate(0, 0, 14),
		Status:   circulation.LoanActive,
	}

	// act
	err := store.CommitTitleChange(ctx, title.Version, circulation.ChangeSet{
		Title:   &updated,
		NewLoan: &loan,
	})

	// assert
	require.NoError(t, err)

	current, findErr := store.FindTitle(ctx, title.ID)
	require.NoError(t, findErr)
	assert.Equal(t, title.Version+1, current.Version)
	assert.Equal(t, circulation.TitleBorrowed, current.Status)

	stored, loanErr := store.FindLoan(ctx, loan.ID)
	require.NoError(t, loanErr)
	assert.Equal(t, circulation.LoanActive, stored.Status)
}

func Test_LoadTitleContext_AssemblesSnapshotWithHolderCounters(t *testing.T) {
	// arrange
	ctx := context.Background()
	now := time.Now()
	store := memoryengine.NewStore()

	title := givenTitle(t, 3, 1)
	require.NoError(t, store.AddTitle(title))

	holderID := uuid.New()

	onThisTitle := circulation.Loan{
		ID: uuid.New(), TitleID: title.ID, HolderID: holderID,
		LoanDate: now.Add(-48 * time.Hour), DueDate: now.AddDate(0, 0, 12),
		Status: circulation.LoanActive,
	}
	overdueElsewhere := circulation.Loan{
		ID: uuid.New(), TitleID: uuid.New(), HolderID: holderID,
		LoanDate: now.Add(-20 * 24 * time.Hour), DueDate: now.Add(-24 * time.Hour),
		Status: circulation.LoanOverdue,
	}
	closedElsewhere := circulation.Loan{
		ID: uuid.New(), TitleID: uuid.New(), HolderID: holderID,
		LoanDate: now.Add(-60 * 24 * time.Hour), DueDate: now.Add(-46 * 24 * time.Hour),
		Status: circulation.LoanReturned,
	}
	store.SeedLoan(onThisTitle)
	store.SeedLoan(overdueElsewhere)
	store.SeedLoan(closedElsewhere)

	holdElsewhere := circulation.Hold{
		ID: uuid.New(), TitleID: uuid.New(), HolderID: holderID,
		RequestedAt: now.Add(-time.Hour), ExpiryDate: now.AddDate(0, 0, 7),
		Status: circulation.HoldPending, QueuePosition: 1,
	}
	store.SeedHold(holdElsewhere)

	// act
	snapshot, err := store.LoadTitleContext(ctx, title.ID, holderID, now)

	// assert: only this title's open records, counters across all titles
	require.NoError(t, err)
	require.Len(t, snapshot.Loans, 1)
	assert.Equal(t, onThisTitle.ID, snapshot.Loans[0].ID)
	assert.Empty(t, snapshot.Holds)

	assert.Equal(t, 1, snapshot.Holder.ActiveLoanCount)
	assert.Equal(t, 1, snapshot.Holder.OverdueCount)
	assert.Equal(t, 1, snapshot.Holder.OpenHoldCount)
}

func Test_LoadTitleContext_HoldsComeBackInQueueOrder(t *testing.T) {
	// arrange
	ctx := context.Background()
	now := time.Now()
	store := memoryengine.NewStore()

	title := givenTitle(t, 1, 0)
	require.NoError(t, store.AddTitle(title))

	for position := 3; position >= 1; position-- {
		store.SeedHold(circulation.Hold{
			ID: uuid.New(), TitleID: title.ID, HolderID: uuid.New(),
			RequestedAt: now.Add(time.Duration(-position) * time.Hour),
			ExpiryDate:  now.AddDate(0, 0, 7),
			Status:      circulation.HoldPending, QueuePosition: position,
		})
	}

	// act
	snapshot, err := store.LoadTitleContext(ctx, title.ID, uuid.Nil, now)

	// assert
	require.NoError(t, err)
	require.Len(t, snapshot.Holds, 3)
	for i, hold := range snapshot.Holds {
		assert.Equal(t, i+1, hold.QueuePosition)
	}
}

func Test_ListOverdueLoans_FiltersOnStatusAndDueDate(t *testing.T) {
	// arrange
	ctx := context.Background()
	now := time.Now()
	store := memoryengine.NewStore()

	pastDue := circulation.Loan{
		ID: uuid.New(), TitleID: uuid.New(), HolderID: uuid.New(),
		LoanDate: now.Add(-20 * 24 * time.Hour), DueDate: now.Add(-24 * time.Hour),
		Status: circulation.LoanActive,
	}
	alreadyFlagged := pastDue
	alreadyFlagged.ID = uuid.New()
	alreadyFlagged.Status = circulation.LoanOverdue

	store.SeedLoan(pastDue)
	store.SeedLoan(alreadyFlagged)

	// act
	due, err := store.ListOverdueLoans(ctx, now)

	// assert: OVERDUE rows are already handled, only ACTIVE ones come back
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, pastDue.ID, due[0].ID)
}

func givenTitle(t *testing.T, total int, available int) circulation.Title {
	t.Helper()

	return circulation.Title{
		ID:              uuid.New(),
		TotalCopies:     total,
		AvailableCopies: available,
		Status:          circulation.TitleAvailable,
		Version:         0,
	}
}
