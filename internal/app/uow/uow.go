package uow

import (
	"context"

	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	domainvehicles "driveshare/internal/domain/vehicles"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Vehicles() domainvehicles.Repository
	Availability() domainavailability.Repository
	Reservations() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
