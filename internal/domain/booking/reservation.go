package booking

import (
	"context"
	"errors"
	"time"

	"driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/events"
	"driveshare/internal/domain/shared/money"
	"driveshare/internal/domain/shared/timewindow"
	"driveshare/internal/domain/vehicles"
)

var (
	ErrInvalidState        = errors.New("booking: invalid state transition")
	ErrRenterRequired      = errors.New("booking: renter id required")
	ErrReservationNotFound = errors.New("booking: reservation not found")
	ErrTripStartsInPast    = errors.New("booking: trip start is in the past")
)

type ReservationID string

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Active reports whether the status still holds its window; cancelled
// reservations never participate in conflict detection.
func (s Status) Active() bool {
	return s != StatusCancelled
}

type InsuranceTier string

const (
	InsuranceNone     InsuranceTier = "NONE"
	InsuranceStandard InsuranceTier = "STANDARD"
	InsurancePremium  InsuranceTier = "PREMIUM"
)

// DailyFee scales the vehicle's base insurance fee for the chosen tier.
func (t InsuranceTier) DailyFee(base money.Money) money.Money {
	switch t {
	case InsuranceNone:
		return money.Money{Amount: 0, Currency: base.Currency}
	case InsurancePremium:
		return base.Multiply(2)
	default:
		return base
	}
}

type Reservation struct {
	ID        ReservationID
	VehicleID vehicles.VehicleID
	RenterID  string
	Window    timewindow.Window
	Insurance InsuranceTier
	Price     pricing.Quote
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	Save(ctx context.Context, reservation *Reservation) error
	ListByRenter(ctx context.Context, renterID string) ([]*Reservation, error)
	ListActiveByVehicle(ctx context.Context, vehicleID vehicles.VehicleID) ([]*Reservation, error)
}

type CreateParams struct {
	ID        ReservationID
	VehicleID vehicles.VehicleID
	RenterID  string
	Window    timewindow.Window
	Insurance InsuranceTier
	Price     pricing.Quote
	Initial   Status
	CreatedAt time.Time
}

func NewReservation(params CreateParams) (*Reservation, error) {
	if params.RenterID == "" {
		return nil, ErrRenterRequired
	}
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}
	initial := params.Initial
	if initial == "" {
		initial = StatusPending
	}
	now := params.CreatedAt.UTC()
	r := &Reservation{
		ID:        params.ID,
		VehicleID: params.VehicleID,
		RenterID:  params.RenterID,
		Window:    params.Window,
		Insurance: params.Insurance,
		Price:     params.Price,
		Status:    initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(ReservationRequested{ReservationID: r.ID, VehicleID: r.VehicleID, RenterID: r.RenterID, Window: r.Window, Total: r.Price.Total, Status: r.Status, At: now})
	if initial == StatusConfirmed {
		r.Record(ReservationConfirmed{ReservationID: r.ID, VehicleID: r.VehicleID, Window: r.Window, At: now})
	}
	return r, nil
}

func (r *Reservation) Confirm(now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidState
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = now.UTC()
	r.Record(ReservationConfirmed{ReservationID: r.ID, VehicleID: r.VehicleID, Window: r.Window, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) Decline(reason string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidState
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{ReservationID: r.ID, VehicleID: r.VehicleID, Reason: reason, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) Start(now time.Time) error {
	if r.Status != StatusConfirmed {
		return ErrInvalidState
	}
	r.Status = StatusInProgress
	r.UpdatedAt = now.UTC()
	r.Record(TripStarted{ReservationID: r.ID, VehicleID: r.VehicleID, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) Complete(now time.Time) error {
	if r.Status != StatusInProgress {
		return ErrInvalidState
	}
	r.Status = StatusCompleted
	r.UpdatedAt = now.UTC()
	r.Record(TripCompleted{ReservationID: r.ID, VehicleID: r.VehicleID, At: r.UpdatedAt})
	return nil
}

func (r *Reservation) Cancel(reason string, now time.Time) error {
	switch r.Status {
	case StatusPending, StatusConfirmed:
	default:
		return ErrInvalidState
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	r.Record(ReservationCancelled{ReservationID: r.ID, VehicleID: r.VehicleID, Reason: reason, At: r.UpdatedAt})
	return nil
}

// ValidateTripStart rejects windows whose start day is already behind us.
func ValidateTripStart(w timewindow.Window, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startDay := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, time.UTC)
	if startDay.Before(today) {
		return ErrTripStartsInPast
	}
	return nil
}
