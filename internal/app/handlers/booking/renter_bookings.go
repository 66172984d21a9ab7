package booking

import (
	"context"
	"errors"
	"sort"

	"driveshare/internal/app/dto"
	"driveshare/internal/app/queries"
	"driveshare/internal/app/uow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const listRenterBookingsKey = "booking.list_by_renter"

type ListRenterBookingsQuery struct {
	RenterID string
}

func (q ListRenterBookingsQuery) Key() string { return listRenterBookingsKey }

type ListRenterBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRenterBookingsHandler) Handle(ctx context.Context, q ListRenterBookingsQuery) (dto.RenterBookingCollection, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.RenterBookingCollection{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.RenterBookingCollection{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	reservations, err := unit.Reservations().ListByRenter(ctx, q.RenterID)
	if err != nil {
		return dto.RenterBookingCollection{}, err
	}
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].CreatedAt.After(reservations[j].CreatedAt)
	})

	out := dto.RenterBookingCollection{Items: make([]dto.RenterBookingSummary, 0, len(reservations))}
	for _, reservation := range reservations {
		vehicle, err := unit.Vehicles().ByID(ctx, reservation.VehicleID)
		if err != nil {
			if errors.Is(err, domainvehicles.ErrVehicleNotFound) {
				vehicle = nil
			} else {
				return dto.RenterBookingCollection{}, err
			}
		}
		out.Items = append(out.Items, dto.MapRenterBookingSummary(reservation, vehicle))
	}
	return out, nil
}

var _ queries.Handler[ListRenterBookingsQuery, dto.RenterBookingCollection] = (*ListRenterBookingsHandler)(nil)
