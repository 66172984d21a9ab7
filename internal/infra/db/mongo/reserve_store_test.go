package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

type stubCalendarRepo struct {
	calendars map[domainvehicles.VehicleID]*domainavailability.VehicleCalendar
	saveErr   error
}

func newStubCalendarRepo() *stubCalendarRepo {
	return &stubCalendarRepo{calendars: make(map[domainvehicles.VehicleID]*domainavailability.VehicleCalendar)}
}

func (r *stubCalendarRepo) Calendar(ctx context.Context, id domainvehicles.VehicleID) (*domainavailability.VehicleCalendar, error) {
	stored, ok := r.calendars[id]
	if !ok {
		return domainavailability.NewCalendar(id), nil
	}
	return &domainavailability.VehicleCalendar{
		VehicleID: stored.VehicleID,
		Version:   stored.Version,
		Blocks:    append([]domainavailability.Block(nil), stored.Blocks...),
	}, nil
}

func (r *stubCalendarRepo) Save(ctx context.Context, calendar *domainavailability.VehicleCalendar) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.calendars[calendar.VehicleID] = &domainavailability.VehicleCalendar{
		VehicleID: calendar.VehicleID,
		Version:   calendar.Version + 1,
		Blocks:    append([]domainavailability.Block(nil), calendar.Blocks...),
	}
	return nil
}

type stubReservationRepo struct {
	failSaves int
	saveErr   error
	saved     map[domainbooking.ReservationID]*domainbooking.Reservation
}

func newStubReservationRepo() *stubReservationRepo {
	return &stubReservationRepo{saved: make(map[domainbooking.ReservationID]*domainbooking.Reservation)}
}

func (r *stubReservationRepo) ByID(ctx context.Context, id domainbooking.ReservationID) (*domainbooking.Reservation, error) {
	reservation, ok := r.saved[id]
	if !ok {
		return nil, domainbooking.ErrReservationNotFound
	}
	return reservation, nil
}

func (r *stubReservationRepo) Save(ctx context.Context, reservation *domainbooking.Reservation) error {
	if r.failSaves > 0 {
		r.failSaves--
		return r.saveErr
	}
	r.saved[reservation.ID] = reservation
	return nil
}

func (r *stubReservationRepo) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Reservation, error) {
	var out []*domainbooking.Reservation
	for _, reservation := range r.saved {
		if reservation.RenterID == renterID {
			out = append(out, reservation)
		}
	}
	return out, nil
}

func (r *stubReservationRepo) ListActiveByVehicle(ctx context.Context, vehicleID domainvehicles.VehicleID) ([]*domainbooking.Reservation, error) {
	var out []*domainbooking.Reservation
	for _, reservation := range r.saved {
		if reservation.VehicleID == vehicleID && reservation.Status.Active() {
			out = append(out, reservation)
		}
	}
	return out, nil
}

func stubReserveCmd(reservationID string, start, end time.Time) domainavailability.ReserveCommand {
	return domainavailability.ReserveCommand{
		ReservationID: reservationID,
		VehicleID:     "veh-1",
		RenterID:      "renter-1",
		Window:        timewindow.Window{Start: start, End: end},
		Insurance:     string(domainbooking.InsuranceStandard),
		AutoApprove:   true,
	}
}

func TestAtomicReserveReleasesBlockWhenReservationWriteFails(t *testing.T) {
	ctx := context.Background()
	calendars := newStubCalendarRepo()
	reservations := newStubReservationRepo()
	reservations.failSaves = 1
	reservations.saveErr = errors.New("socket closed")
	store := NewReserveStore(calendars, reservations)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	_, err := store.AtomicReserve(ctx, stubReserveCmd("res-1", start, end))
	require.ErrorIs(t, err, reservations.saveErr)

	// The committed calendar block must not outlive the failed insert.
	calendar, cErr := calendars.Calendar(ctx, "veh-1")
	require.NoError(t, cErr)
	assert.Empty(t, calendar.Blocks)

	// The window is bookable again once the write path recovers.
	receipt, err := store.AtomicReserve(ctx, stubReserveCmd("res-2", start, end))
	require.NoError(t, err)
	assert.Equal(t, "res-2", receipt.ReservationID)
}

func TestAtomicReserveRejectsOverlapFromStoredBlocks(t *testing.T) {
	ctx := context.Background()
	calendars := newStubCalendarRepo()
	store := NewReserveStore(calendars, newStubReservationRepo())

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.AtomicReserve(ctx, stubReserveCmd("res-1", start, start.AddDate(0, 0, 3)))
	require.NoError(t, err)

	_, err = store.AtomicReserve(ctx, stubReserveCmd("res-2", start.AddDate(0, 0, 2), start.AddDate(0, 0, 5)))
	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domainavailability.ConflictBooking, conflict.Kind)
}
