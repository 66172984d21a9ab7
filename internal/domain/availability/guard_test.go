package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/timewindow"
	"driveshare/internal/domain/vehicles"
)

type stubStore struct {
	obstacles  []Obstacle
	listErr    error
	receipt    ReserveReceipt
	reserveErr error
	lastCmd    ReserveCommand
}

func (s *stubStore) ListObstacles(ctx context.Context, vehicleID vehicles.VehicleID) ([]Obstacle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.obstacles, s.listErr
}

func (s *stubStore) AtomicReserve(ctx context.Context, cmd ReserveCommand) (ReserveReceipt, error) {
	s.lastCmd = cmd
	return s.receipt, s.reserveErr
}

func (s *stubStore) Release(ctx context.Context, vehicleID vehicles.VehicleID, reference string) error {
	return nil
}

func day(d int) time.Time {
	return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func win(start, end int) timewindow.Window {
	return timewindow.Window{Start: day(start), End: day(end)}
}

func quoteDays(days int) pricing.Quote {
	return pricing.Quote{Days: days}
}

func TestCheckSoftAvailability(t *testing.T) {
	t.Run("no obstacles", func(t *testing.T) {
		guard := NewGuard(&stubStore{})
		report, err := guard.CheckSoftAvailability(context.Background(), "veh-1", win(0, 3))
		require.NoError(t, err)
		assert.True(t, report.Available)
		assert.Empty(t, report.Conflicts)
	})

	t.Run("overlapping obstacle reported with classification", func(t *testing.T) {
		store := &stubStore{obstacles: []Obstacle{
			{Ref: "res-1", Window: win(1, 2), Status: "CONFIRMED"},
			{Ref: "res-2", Window: win(5, 8), Status: "CONFIRMED"},
		}}
		guard := NewGuard(store)
		report, err := guard.CheckSoftAvailability(context.Background(), "veh-1", win(0, 3))
		require.NoError(t, err)
		assert.False(t, report.Available)
		require.Len(t, report.Conflicts, 1)
		assert.Equal(t, "res-1", report.Conflicts[0].Ref)
		assert.Equal(t, timewindow.OverlapInside, report.Conflicts[0].Overlap)
	})

	t.Run("boundary adjacent obstacle does not conflict", func(t *testing.T) {
		store := &stubStore{obstacles: []Obstacle{{Ref: "res-1", Window: win(3, 6)}}}
		guard := NewGuard(store)
		report, err := guard.CheckSoftAvailability(context.Background(), "veh-1", win(0, 3))
		require.NoError(t, err)
		assert.True(t, report.Available)
	})

	t.Run("invalid window", func(t *testing.T) {
		guard := NewGuard(&stubStore{})
		_, err := guard.CheckSoftAvailability(context.Background(), "veh-1", win(3, 3))
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, ConflictInvalidDates, conflict.Kind)
	})

	t.Run("store failure wraps as transport error", func(t *testing.T) {
		guard := NewGuard(&stubStore{listErr: errors.New("connection reset")})
		_, err := guard.CheckSoftAvailability(context.Background(), "veh-1", win(0, 3))
		var transport *TransportError
		require.ErrorAs(t, err, &transport)
		assert.Equal(t, "soft check", transport.Op)
	})

	t.Run("cancellation is not a transport error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		guard := NewGuard(&stubStore{})
		_, err := guard.CheckSoftAvailability(ctx, "veh-1", win(0, 3))
		assert.ErrorIs(t, err, context.Canceled)
		var transport *TransportError
		assert.False(t, errors.As(err, &transport))
	})
}

func TestCommitBooking(t *testing.T) {
	request := func() BookingRequest {
		return BookingRequest{
			ReservationID: "res-1",
			VehicleID:     "veh-1",
			RenterID:      "renter-1",
			Window:        win(0, 3),
			Insurance:     "STANDARD",
			Quote:         quoteDays(3),
			MinTripDays:   1,
			AutoApprove:   true,
		}
	}

	t.Run("success returns store receipt", func(t *testing.T) {
		store := &stubStore{receipt: ReserveReceipt{ReservationID: "res-1", Status: "CONFIRMED"}}
		guard := NewGuard(store)
		receipt, err := guard.CommitBooking(context.Background(), request())
		require.NoError(t, err)
		assert.Equal(t, "res-1", receipt.ReservationID)
		assert.Equal(t, "CONFIRMED", receipt.Status)
		assert.Equal(t, "renter-1", store.lastCmd.RenterID)
		assert.True(t, store.lastCmd.AutoApprove)
	})

	t.Run("minimum duration checked before the store", func(t *testing.T) {
		store := &stubStore{}
		guard := NewGuard(store)
		req := request()
		req.MinTripDays = 5
		_, err := guard.CommitBooking(context.Background(), req)
		assert.ErrorIs(t, err, ErrMinimumDuration)
		assert.Empty(t, store.lastCmd.ReservationID)
	})

	t.Run("invalid window rejected locally", func(t *testing.T) {
		guard := NewGuard(&stubStore{})
		req := request()
		req.Window = win(2, 2)
		_, err := guard.CommitBooking(context.Background(), req)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, ConflictInvalidDates, conflict.Kind)
	})

	t.Run("store conflict passes through verbatim", func(t *testing.T) {
		want := &ConflictError{Kind: ConflictBooking, Conflicts: []ConflictDetail{{Ref: "res-9", Window: win(1, 4)}}}
		guard := NewGuard(&stubStore{reserveErr: want})
		_, err := guard.CommitBooking(context.Background(), request())
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, ConflictBooking, conflict.Kind)
		require.Len(t, conflict.Conflicts, 1)
		assert.Equal(t, "res-9", conflict.Conflicts[0].Ref)
	})

	t.Run("unexpected store failure wraps as ambiguous transport error", func(t *testing.T) {
		cause := errors.New("write timeout")
		guard := NewGuard(&stubStore{reserveErr: cause})
		_, err := guard.CommitBooking(context.Background(), request())
		var transport *TransportError
		require.ErrorAs(t, err, &transport)
		assert.Equal(t, "commit", transport.Op)
		assert.ErrorIs(t, err, cause)
	})
}
