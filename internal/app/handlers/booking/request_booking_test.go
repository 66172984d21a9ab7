package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveshare/internal/app/uow"
	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	domainvehicles "driveshare/internal/domain/vehicles"
	"driveshare/internal/infra/storage/memory"
)

type bookingFixture struct {
	handler *RequestBookingHandler
	outbox  *memory.Outbox
	store   *memory.ReserveStore
}

func newBookingFixture(t *testing.T, approval domainvehicles.ApprovalPolicy, minTripDays int) *bookingFixture {
	t.Helper()

	vehicles := memory.NewVehicleRepository()
	calendars := memory.NewCalendarRepository()
	reservations := memory.NewReservationRepository()

	vehicle, err := domainvehicles.NewVehicle(domainvehicles.CreateParams{
		ID:    "veh-1",
		Host:  "host-1",
		Title: "Toyota Corolla 2022",
		Plate: "AB123CD",
		Seats: 5,
		Address: domainvehicles.Address{
			Line1:   "12 Harbor St",
			City:    "Lisbon",
			Country: "PT",
		},
		Currency:            "USD",
		DailyRateCents:      100000,
		InsuranceDailyCents: 5000,
		MinTripDays:         minTripDays,
		Approval:            approval,
		Now:                 time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, vehicle.Activate(time.Now().UTC()))
	require.NoError(t, vehicles.Save(context.Background(), vehicle))

	store := memory.NewReserveStore(calendars, reservations)
	outbox := memory.NewOutbox()
	return &bookingFixture{
		handler: &RequestBookingHandler{
			UoWFactory: memory.Factory{
				VehiclesRepo:     vehicles,
				AvailabilityRepo: calendars,
				ReservationsRepo: reservations,
			},
			Guard:  domainavailability.NewGuard(store),
			Outbox: outbox,
		},
		outbox: outbox,
		store:  store,
	}
}

func tripCommand(commandID string, startDays, lengthDays int) RequestBookingCommand {
	start := time.Now().UTC().AddDate(0, 0, startDays).Truncate(24 * time.Hour)
	return RequestBookingCommand{
		CommandID: commandID,
		VehicleID: "veh-1",
		RenterID:  "renter-1",
		Start:     start,
		End:       start.AddDate(0, 0, lengthDays),
		Insurance: string(domainbooking.InsuranceStandard),
	}
}

func TestRequestBookingConfirmsAndPrices(t *testing.T) {
	fx := newBookingFixture(t, domainvehicles.ApprovalAuto, 1)

	result, err := fx.handler.Handle(context.Background(), tripCommand("res-1", 7, 3))
	require.NoError(t, err)
	assert.Equal(t, "res-1", result.ReservationID)
	assert.Equal(t, string(domainbooking.StatusConfirmed), result.Status)
	// 3 days at 100000 plus 3x5000 insurance plus a 10 percent service fee.
	assert.Equal(t, int64(345000), result.TotalCents)
	assert.Equal(t, "USD", result.Currency)

	records := fx.outbox.Pending()
	require.Len(t, records, 1)
	assert.Equal(t, "reservation.requested", records[0].Name)
	assert.Equal(t, "res-1", records[0].Aggregate)
}

func TestRequestBookingManualReviewStaysPending(t *testing.T) {
	fx := newBookingFixture(t, domainvehicles.ApprovalManual, 1)

	result, err := fx.handler.Handle(context.Background(), tripCommand("res-1", 7, 3))
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusPending), result.Status)
}

func TestRequestBookingRejectsOverlap(t *testing.T) {
	fx := newBookingFixture(t, domainvehicles.ApprovalAuto, 1)

	_, err := fx.handler.Handle(context.Background(), tripCommand("res-1", 7, 3))
	require.NoError(t, err)

	_, err = fx.handler.Handle(context.Background(), tripCommand("res-2", 8, 3))
	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domainavailability.ConflictBooking, conflict.Kind)
}

func TestRequestBookingEnforcesMinimumDuration(t *testing.T) {
	fx := newBookingFixture(t, domainvehicles.ApprovalAuto, 3)

	_, err := fx.handler.Handle(context.Background(), tripCommand("res-1", 7, 2))
	assert.ErrorIs(t, err, domainavailability.ErrMinimumDuration)
}

func TestRequestBookingRejectsPastStart(t *testing.T) {
	fx := newBookingFixture(t, domainvehicles.ApprovalAuto, 1)

	_, err := fx.handler.Handle(context.Background(), tripCommand("res-1", -3, 3))
	assert.ErrorIs(t, err, domainbooking.ErrTripStartsInPast)
}

func TestRequestBookingRejectsInactiveVehicle(t *testing.T) {
	fx := newBookingFixture(t, domainvehicles.ApprovalAuto, 1)

	unit, err := fx.handler.UoWFactory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	vehicle, err := unit.Vehicles().ByID(context.Background(), "veh-1")
	require.NoError(t, err)
	require.NoError(t, vehicle.Suspend(time.Now().UTC()))
	require.NoError(t, unit.Vehicles().Save(context.Background(), vehicle))

	_, err = fx.handler.Handle(context.Background(), tripCommand("res-1", 7, 3))
	assert.ErrorIs(t, err, ErrVehicleUnavailable)
}
