package cancelhold_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulate/circulation"
	"github.com/openshelf/circulate/features/command/cancelhold"
)

func Test_Decide_Success_PendingCancellationClosesTheGap(t *testing.T) {
	// arrange
	titleID := uuid.New()
	now := time.Now()

	first := givenQueuedHold(t, titleID, 1, now.Add(-3*time.Hour))
	second := givenQueuedHold(t, titleID, 2, now.Add(-2*time.Hour))
	third := givenQueuedHold(t, titleID, 3, now.Add(-1*time.Hour))

	snapshot := givenSnapshot(t, titleID, []circulation.Hold{first, second, third})
	command := cancelhold.BuildCommand(second.ID, now)

	// act
	result := cancelhold.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())

	byID := holdsByID(result.Changes.UpdatedHolds)
	assert.Equal(t, circulation.HoldCancelled, byID[second.ID].Status)
	assert.Equal(t, 2, byID[third.ID].QueuePosition)
	assert.NotContains(t, byID, first.ID) // position 1 is unchanged

	assert.Nil(t, result.Changes.Promoted)
	assert.Equal(t, circulation.TitleBorrowed, result.Changes.Title.Status)
}

func Test_Decide_Success_ReadyCancellationPromotesNextHold(t *testing.T) {
	// arrange
	titleID := uuid.New()
	now := time.Now()

	ready := givenQueuedHold(t, titleID, 0, now.Add(-3*time.Hour))
	ready.Status = circulation.HoldReady
	waiting := givenQueuedHold(t, titleID, 1, now.Add(-1*time.Hour))

	snapshot := givenSnapshot(t, titleID, []circulation.Hold{ready, waiting})
	snapshot.Title.Status = circulation.TitleReserved

	command := cancelhold.BuildCommand(ready.ID, now)

	// act
	result := cancelhold.Decide(snapshot, command, circulation.DefaultRules())

	// assert: the released copy goes straight to the next in line
	require.True(t, result.HasChangesToCommit())
	require.NotNil(t, result.Changes.Promoted)
	assert.Equal(t, waiting.ID, result.Changes.Promoted.ID)
	assert.Equal(t, circulation.HoldReady, result.Changes.Promoted.Status)

	assert.Equal(t, 0, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleReserved, result.Changes.Title.Status)
}

func Test_Decide_Success_ReadyCancellationWithEmptyQueueFreesTheCopy(t *testing.T) {
	// arrange
	titleID := uuid.New()
	now := time.Now()

	ready := givenQueuedHold(t, titleID, 0, now.Add(-3*time.Hour))
	ready.Status = circulation.HoldReady

	snapshot := givenSnapshot(t, titleID, []circulation.Hold{ready})
	snapshot.Title.Status = circulation.TitleReserved

	command := cancelhold.BuildCommand(ready.ID, now)

	// act
	result := cancelhold.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	assert.Nil(t, result.Changes.Promoted)
	assert.Equal(t, 1, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleAvailable, result.Changes.Title.Status)
}

func Test_Decide_Success_ReadyCancellationUnderMaintenanceLeavesQueueWaiting(t *testing.T) {
	// arrange: the title was withdrawn while a reservation was open
	titleID := uuid.New()
	now := time.Now()

	ready := givenQueuedHold(t, titleID, 0, now.Add(-3*time.Hour))
	ready.Status = circulation.HoldReady
	waiting := givenQueuedHold(t, titleID, 1, now.Add(-1*time.Hour))

	snapshot := givenSnapshot(t, titleID, []circulation.Hold{ready, waiting})
	snapshot.Title.Status = circulation.TitleMaintenance

	command := cancelhold.BuildCommand(ready.ID, now)

	// act
	result := cancelhold.Decide(snapshot, command, circulation.DefaultRules())

	// assert: the freed copy waits for the reinstate, nobody burns a pickup
	// window while borrowing is blocked
	require.True(t, result.HasChangesToCommit())
	assert.Nil(t, result.Changes.Promoted)
	assert.Equal(t, 1, result.Changes.Title.AvailableCopies)
	assert.Equal(t, circulation.TitleMaintenance, result.Changes.Title.Status)

	byID := holdsByID(result.Changes.UpdatedHolds)
	assert.Equal(t, circulation.HoldCancelled, byID[ready.ID].Status)
	assert.NotContains(t, byID, waiting.ID) // still PENDING at position 1
}

func Test_Decide_Success_OwnerMayCancelOwnHold(t *testing.T) {
	// arrange
	titleID := uuid.New()
	now := time.Now()
	hold := givenQueuedHold(t, titleID, 1, now.Add(-time.Hour))

	snapshot := givenSnapshot(t, titleID, []circulation.Hold{hold})
	command := cancelhold.BuildOwnerCommand(hold.ID, hold.HolderID, now)

	// act
	result := cancelhold.Decide(snapshot, command, circulation.DefaultRules())

	// assert
	require.True(t, result.HasChangesToCommit())
	assert.Equal(t, circulation.HoldCancelled, result.Changes.UpdatedHolds[0].Status)
}

func Test_Decide_BusinessErrors(t *testing.T) {
	titleID := uuid.New()
	now := time.Now()

	hold := givenQueuedHold(t, titleID, 1, now.Add(-time.Hour))
	cancelled := givenQueuedHold(t, titleID, 0, now.Add(-2*time.Hour))
	cancelled.Status = circulation.HoldCancelled

	snapshot := givenSnapshot(t, titleID, []circulation.Hold{hold, cancelled})

	t.Run("unknown hold", func(t *testing.T) {
		result := cancelhold.Decide(snapshot, cancelhold.BuildCommand(uuid.New(), now), circulation.DefaultRules())
		assert.ErrorIs(t, result.HasError(), circulation.ErrNotFound)
	})

	t.Run("closed hold cannot be cancelled", func(t *testing.T) {
		result := cancelhold.Decide(snapshot, cancelhold.BuildCommand(cancelled.ID, now), circulation.DefaultRules())
		assert.ErrorIs(t, result.HasError(), circulation.ErrInvalidState)
	})

	t.Run("owner mismatch", func(t *testing.T) {
		result := cancelhold.Decide(snapshot, cancelhold.BuildOwnerCommand(hold.ID, uuid.New(), now), circulation.DefaultRules())
		assert.ErrorIs(t, result.HasError(), circulation.ErrInvalidState)
	})
}

func givenSnapshot(t *testing.T, titleID uuid.UUID, holds []circulation.Hold) circulation.TitleContext {
	t.Helper()

	return circulation.TitleContext{
		Title: circulation.Title{
			ID:              titleID,
			TotalCopies:     1,
			AvailableCopies: 0,
			Status:          circulation.TitleBorrowed,
			Version:         1,
		},
		Holds: holds,
	}
}

func givenQueuedHold(t *testing.T, titleID uuid.UUID, position int, requestedAt time.Time) circulation.Hold {
	t.Helper()

	return circulation.Hold{
		ID:            uuid.New(),
		TitleID:       titleID,
		HolderID:      uuid.New(),
		RequestedAt:   requestedAt,
		ExpiryDate:    requestedAt.AddDate(0, 0, 7),
		Status:        circulation.HoldPending,
		QueuePosition: position,
	}
}

func holdsByID(holds []circulation.Hold) map[uuid.UUID]circulation.Hold {
	byID := make(map[uuid.UUID]circulation.Hold, len(holds))
	for _, hold := range holds {
		byID[hold.ID] = hold
	}

	return byID
}
