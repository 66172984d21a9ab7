package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveshare/internal/app/commands"
	domainavailability "driveshare/internal/domain/availability"
	"driveshare/internal/domain/shared/timewindow"
)

type mapIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]IdempotencyRecord
}

func newMapStore() *mapIdempotencyStore {
	return &mapIdempotencyStore{records: make(map[string]IdempotencyRecord)}
}

func (s *mapIdempotencyStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *mapIdempotencyStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = rec
	return nil
}

type bookingResult struct {
	ReservationID string `json:"reservation_id"`
}

type replayableCommand struct {
	key string
}

func (replayableCommand) Key() string              { return "test.replayable" }
func (c replayableCommand) IdempotencyKey() string { return c.key }
func (replayableCommand) ResultPrototype() any     { return &bookingResult{} }

type plainCommand struct{}

func (plainCommand) Key() string { return "test.plain" }

type countingBus struct {
	calls  int
	result any
	err    error
}

func (b *countingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.calls++
	return b.result, b.err
}

func TestIdempotencyReplay(t *testing.T) {
	inner := &countingBus{result: &bookingResult{ReservationID: "res-1"}}
	bus := ChainCommands(inner, Idempotency(newMapStore(), nil))
	cmd := replayableCommand{key: "idem-1"}

	first, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "res-1", first.(*bookingResult).ReservationID)
	assert.Equal(t, 1, inner.calls)

	replay, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "res-1", replay.(*bookingResult).ReservationID)
	assert.Equal(t, 1, inner.calls, "replay must not reach the handler")
}

func TestIdempotencyReplaysErrors(t *testing.T) {
	inner := &countingBus{err: errors.New("vehicle unavailable")}
	bus := ChainCommands(inner, Idempotency(newMapStore(), nil))
	cmd := replayableCommand{key: "idem-err"}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)

	_, err = bus.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "vehicle unavailable")
	assert.Equal(t, 1, inner.calls)
}

func TestIdempotencyReplaysTypedRejections(t *testing.T) {
	t.Run("availability conflict", func(t *testing.T) {
		window := timewindow.Window{
			Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC),
		}
		inner := &countingBus{err: &domainavailability.ConflictError{
			Kind:      domainavailability.ConflictBooking,
			Conflicts: []domainavailability.ConflictDetail{{Ref: "res-9", Window: window, Status: "CONFIRMED"}},
		}}
		bus := ChainCommands(inner, Idempotency(newMapStore(), nil))
		cmd := replayableCommand{key: "idem-conflict"}

		_, err := bus.Dispatch(context.Background(), cmd)
		require.Error(t, err)

		_, err = bus.Dispatch(context.Background(), cmd)
		var conflict *domainavailability.ConflictError
		require.ErrorAs(t, err, &conflict, "replay must keep the conflict type")
		assert.Equal(t, domainavailability.ConflictBooking, conflict.Kind)
		require.Len(t, conflict.Conflicts, 1)
		assert.Equal(t, "res-9", conflict.Conflicts[0].Ref)
		assert.True(t, window.Start.Equal(conflict.Conflicts[0].Window.Start))
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("minimum duration", func(t *testing.T) {
		inner := &countingBus{err: domainavailability.ErrMinimumDuration}
		bus := ChainCommands(inner, Idempotency(newMapStore(), nil))
		cmd := replayableCommand{key: "idem-min"}

		_, err := bus.Dispatch(context.Background(), cmd)
		require.Error(t, err)

		_, err = bus.Dispatch(context.Background(), cmd)
		assert.ErrorIs(t, err, domainavailability.ErrMinimumDuration)
		assert.Equal(t, 1, inner.calls)
	})
}

func TestIdempotencyBypass(t *testing.T) {
	t.Run("empty key", func(t *testing.T) {
		inner := &countingBus{result: &bookingResult{ReservationID: "res-1"}}
		bus := ChainCommands(inner, Idempotency(newMapStore(), nil))
		for i := 0; i < 2; i++ {
			_, err := bus.Dispatch(context.Background(), replayableCommand{})
			require.NoError(t, err)
		}
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("non idempotent command", func(t *testing.T) {
		inner := &countingBus{}
		bus := ChainCommands(inner, Idempotency(newMapStore(), nil))
		for i := 0; i < 2; i++ {
			_, err := bus.Dispatch(context.Background(), plainCommand{})
			require.NoError(t, err)
		}
		assert.Equal(t, 2, inner.calls)
	})
}
