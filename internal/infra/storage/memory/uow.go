package memory

import (
	"context"
	"errors"

	"driveshare/internal/app/uow"
	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	domainvehicles "driveshare/internal/domain/vehicles"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	VehiclesRepo     domainvehicles.Repository
	AvailabilityRepo domainavailability.Repository
	ReservationsRepo domainbooking.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.VehiclesRepo == nil || f.AvailabilityRepo == nil || f.ReservationsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		vehicles:     f.VehiclesRepo,
		availability: f.AvailabilityRepo,
		reservations: f.ReservationsRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	vehicles     domainvehicles.Repository
	availability domainavailability.Repository
	reservations domainbooking.Repository
}

func (u *Unit) Vehicles() domainvehicles.Repository {
	return u.vehicles
}

func (u *Unit) Availability() domainavailability.Repository {
	return u.availability
}

func (u *Unit) Reservations() domainbooking.Repository {
	return u.reservations
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
