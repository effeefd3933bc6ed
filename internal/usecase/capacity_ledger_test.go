package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"sauna-booking/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityLedger_ReserveAndRelease_RoundTrip(t *testing.T) {
	// GIVEN: A session with 8 open spots
	// WHEN: Reserving 3 and releasing 3
	// THEN: The reserved counter returns to zero

	env := newTestEnv()
	ctx := context.Background()
	session := env.addSession(8, 20000, 24*time.Hour, false)

	require.NoError(t, env.capacity.Reserve(ctx, session.ID, 3))
	assert.Equal(t, 3, env.sessions.reserved(session.ID))

	require.NoError(t, env.capacity.Release(ctx, session.ID, 3))
	assert.Equal(t, 0, env.sessions.reserved(session.ID))
}

func TestCapacityLedger_Reserve_RejectsOverbooking(t *testing.T) {
	// GIVEN: A session with 2 spots left
	// WHEN: Requesting 3
	// THEN: The reservation is rejected and nothing is held

	env := newTestEnv()
	ctx := context.Background()
	session := env.addSession(8, 20000, 24*time.Hour, false)

	require.NoError(t, env.capacity.Reserve(ctx, session.ID, 6))

	err := env.capacity.Reserve(ctx, session.ID, 3)
	assert.ErrorIs(t, err, usecase.ErrInsufficientCapacity)
	assert.Equal(t, 6, env.sessions.reserved(session.ID))
}

func TestCapacityLedger_Reserve_NeverOverbooksUnderConcurrency(t *testing.T) {
	// GIVEN: A session with 10 spots and 50 concurrent requests for 1 spot
	// WHEN: All requests race
	// THEN: Exactly 10 succeed and reserved never exceeds capacity

	env := newTestEnv()
	ctx := context.Background()
	session := env.addSession(10, 20000, 24*time.Hour, false)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := env.capacity.Reserve(ctx, session.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, env.sessions.reserved(session.ID))
}

func TestCapacityLedger_PrivateSession_SingleReservationClosesIt(t *testing.T) {
	// GIVEN: A private session with capacity 12
	// WHEN: One member reserves 4 spots
	// THEN: Any further reservation is rejected even though seats remain

	env := newTestEnv()
	ctx := context.Background()
	session := env.addSession(12, 20000, 24*time.Hour, true)

	require.NoError(t, env.capacity.Reserve(ctx, session.ID, 4))

	err := env.capacity.Reserve(ctx, session.ID, 1)
	assert.ErrorIs(t, err, usecase.ErrAlreadyPrivatelyBooked)
	assert.Equal(t, 4, env.sessions.reserved(session.ID))
}

func TestCapacityLedger_Grow_PrivateSession_TakesNumericRoom(t *testing.T) {
	// GIVEN: A private session occupied by a 4-spot reservation
	// WHEN: The reservation grows by 2, then by more than the room left
	// THEN: The first grow lands, the second is rejected on numeric capacity

	env := newTestEnv()
	ctx := context.Background()
	session := env.addSession(8, 20000, 24*time.Hour, true)

	require.NoError(t, env.capacity.Reserve(ctx, session.ID, 4))

	require.NoError(t, env.capacity.Grow(ctx, session.ID, 2))
	assert.Equal(t, 6, env.sessions.reserved(session.ID))

	err := env.capacity.Grow(ctx, session.ID, 3)
	assert.ErrorIs(t, err, usecase.ErrInsufficientCapacity)
	assert.Equal(t, 6, env.sessions.reserved(session.ID))
}

func TestCapacityLedger_PrivateSession_ReleaseReopens(t *testing.T) {
	// GIVEN: An occupied private session
	// WHEN: The holder's spots are released
	// THEN: The session accepts a new reservation again

	env := newTestEnv()
	ctx := context.Background()
	session := env.addSession(12, 20000, 24*time.Hour, true)

	require.NoError(t, env.capacity.Reserve(ctx, session.ID, 4))
	require.NoError(t, env.capacity.Release(ctx, session.ID, 4))

	assert.NoError(t, env.capacity.Reserve(ctx, session.ID, 2))
}

func TestCapacityLedger_Release_FlooredAtZero(t *testing.T) {
	// GIVEN: A session with 1 reserved spot
	// WHEN: Releasing 5
	// THEN: The counter floors at zero instead of going negative

	env := newTestEnv()
	ctx := context.Background()
	session := env.addSession(8, 20000, 24*time.Hour, false)

	require.NoError(t, env.capacity.Reserve(ctx, session.ID, 1))
	require.NoError(t, env.capacity.Release(ctx, session.ID, 5))

	assert.Equal(t, 0, env.sessions.reserved(session.ID))
}

func TestCapacityLedger_Move_TransfersSpots(t *testing.T) {
	// GIVEN: 3 spots held on session A, room on session B
	// WHEN: Moving the spots
	// THEN: A is empty and B holds 3

	env := newTestEnv()
	ctx := context.Background()
	from := env.addSession(8, 20000, 24*time.Hour, false)
	to := env.addSession(8, 20000, 48*time.Hour, false)

	require.NoError(t, env.capacity.Reserve(ctx, from.ID, 3))
	require.NoError(t, env.capacity.Move(ctx, from.ID, to.ID, 3))

	assert.Equal(t, 0, env.sessions.reserved(from.ID))
	assert.Equal(t, 3, env.sessions.reserved(to.ID))
}

func TestCapacityLedger_Move_RestoresSourceWhenTargetFull(t *testing.T) {
	// GIVEN: 3 spots held on session A and a full session B
	// WHEN: Moving the spots fails on B's guard
	// THEN: A's reservation is restored, nothing is lost

	env := newTestEnv()
	ctx := context.Background()
	from := env.addSession(8, 20000, 24*time.Hour, false)
	to := env.addSession(4, 20000, 48*time.Hour, false)

	require.NoError(t, env.capacity.Reserve(ctx, from.ID, 3))
	require.NoError(t, env.capacity.Reserve(ctx, to.ID, 4))

	err := env.capacity.Move(ctx, from.ID, to.ID, 3)
	assert.ErrorIs(t, err, usecase.ErrInsufficientCapacity)
	assert.Equal(t, 3, env.sessions.reserved(from.ID))
	assert.Equal(t, 4, env.sessions.reserved(to.ID))
}
