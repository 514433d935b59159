package expiredholds_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/features/sweep/expiredholds"
)

func Test_Decide_Success_ExpiredReadyHoldHandsTheCopyDownTheQueue(t *testing.T) {
	// arrange: a READY hold past its pickup window, one holder still waiting
	now := time.Now()
	titleID := uuid.New()

	stale := givenHold(t, titleID, circulation.HoldReady, 0, now.Add(-time.Hour))
	waiting := givenHold(t, titleID, circulation.HoldPending, 1, now.AddDate(0, 0, 5))

	snapshot := givenSnapshot(t, titleID, circulation.TitleReserved, 0, stale, waiting)

	// act
	result := expiredholds.Decide(snapshot, now, circulation.DefaultRules())

	// assert: the copy never becomes publicly available
	require.True(t, result.HasChangesToCommit())

	byID := holdsByID(result.Changes.UpdatedHolds)
	assert.Equal(t, circulation.HoldExpired, byID[stale.ID].Status)

	require.NotNil(t, result.Changes.Promoted)
	assert.Equal(t, waiting.ID, result.Changes.Promoted.ID)
	assert.Equal(t, circulation.HoldReady, result.Changes.Promoted.Status)
	assert.Equal(t, now.AddDate(0, 0, circulation.DefaultReadyHoldExpiryDays), result.Changes.Promoted.ExpiryDate)

	assert.Equal(t, 0, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleReserved, result.Changes.Title.Status)
}

func Test_Decide_Success_ExpiredReadyHoldWithEmptyQueueFreesTheCopy(t *testing.T) {
	// arrange
	now := time.Now()
	titleID := uuid.New()
	stale := givenHold(t, titleID, circulation.HoldReady, 0, now.Add(-time.Hour))

	snapshot := givenSnapshot(t, titleID, circulation.TitleReserved, 0, stale)

	// act
	result := expiredholds.Decide(snapshot, now, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	assert.Nil(t, result.Changes.Promoted)
	assert.Equal(t, 1, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleAvailable, result.Changes.Title.Status)
}

func Test_Decide_Success_ExpiredPendingHoldsLeaveARenumberedQueue(t *testing.T) {
	// arrange: the middle of three waiting holds ran out
	now := time.Now()
	titleID := uuid.New()

	first := givenHold(t, titleID, circulation.HoldPending, 1, now.AddDate(0, 0, 4))
	stale := givenHold(t, titleID, circulation.HoldPending, 2, now.Add(-time.Hour))
	third := givenHold(t, titleID, circulation.HoldPending, 3, now.AddDate(0, 0, 6))

	snapshot := givenSnapshot(t, titleID, circulation.TitleBorrowed, 0, first, stale, third)

	// act
	result := expiredholds.Decide(snapshot, now, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	assert.Nil(t, result.Changes.Promoted)

	byID := holdsByID(result.Changes.UpdatedHolds)
	assert.Equal(t, circulation.HoldExpired, byID[stale.ID].Status)
	assert.Equal(t, 0, byID[stale.ID].QueuePosition)
	assert.Equal(t, 2, byID[third.ID].QueuePosition)
	assert.NotContains(t, byID, first.ID)

	assert.Equal(t, 0, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleBorrowed, result.Changes.Title.Status)
}

func Test_Decide_Success_NoPromotionWhileTitleOutOfCirculation(t *testing.T) {
	// arrange: the reservation outlived the title's withdrawal
	now := time.Now()
	titleID := uuid.New()

	stale := givenHold(t, titleID, circulation.HoldReady, 0, now.Add(-time.Hour))
	waiting := givenHold(t, titleID, circulation.HoldPending, 1, now.AddDate(0, 0, 5))

	snapshot := givenSnapshot(t, titleID, circulation.TitleMaintenance, 0, stale, waiting)

	// act
	result := expiredholds.Decide(snapshot, now, circulation.DefaultRules())

	// assert: the freed copy waits for the reinstate, nobody burns a pickup
	// window while borrowing is blocked
	require.True(t, result.HasChangesToCommit())
	assert.Nil(t, result.Changes.Promoted)
	assert.Equal(t, 1, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleMaintenance, result.Changes.Title.Status)

	byID := holdsByID(result.Changes.UpdatedHolds)
	assert.Equal(t, circulation.HoldExpired, byID[stale.ID].Status)
	assert.NotContains(t, byID, waiting.ID) // still PENDING at position 1
}

func Test_Decide_SecondPassWritesNothing(t *testing.T) {
	// arrange: everything open is still within its window
	now := time.Now()
	titleID := uuid.New()

	fresh := givenHold(t, titleID, circulation.HoldPending, 1, now.AddDate(0, 0, 5))
	gone := givenHold(t, titleID, circulation.HoldExpired, 0, now.Add(-time.Hour))

	snapshot := givenSnapshot(t, titleID, circulation.TitleBorrowed, 0, fresh, gone)

	// act
	result := expiredholds.Decide(snapshot, now, circulation.DefaultRules())

	// assert
	assert.False(t, result.HasChangesToCommit())
	assert.NoError(t, result.HasError())
}

func givenHold(t *testing.T, titleID uuid.UUID, status circulation.HoldStatus, position int, expiry time.Time) circulation.Hold {
	t.Helper()

	return circulation.Hold{
		ID:            uuid.New(),
		TitleID:       titleID,
		HolderID:      uuid.New(),
		RequestedAt:   expiry.AddDate(0, 0, -7),
		ExpiryDate:    expiry,
		Status:        status,
		QueuePosition: position,
	}
}

func givenSnapshot(
	t *testing.T,
	titleID uuid.UUID,
	status circulation.TitleStatus,
	available int,
	holds ...circulation.Hold,
) circulation.TitleContext {
	t.Helper()

	return circulation.TitleContext{
		Title: circulation.Title{
			ID:              titleID,
			TotalCopies:     1,
			AvailableCopies: available,
			Status:          status,
			Version:         1,
		},
		Holds: holds,
	}
}

func holdsByID(holds []circulation.Hold) map[uuid.UUID]circulation.Hold {
	byID := make(map[uuid.UUID]circulation.Hold, len(holds))
	for _, hold := range holds {
		byID[hold.ID] = hold
	}

	return byID
}
