package vehicles

import (
	"context"

	"driveshare/internal/app/dto"
	"driveshare/internal/app/queries"
	"driveshare/internal/app/uow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const getVehicleKey = "vehicles.get"

type GetVehicleQuery struct {
	VehicleID string
}

func (q GetVehicleQuery) Key() string { return getVehicleKey }

type GetVehicleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetVehicleHandler) Handle(ctx context.Context, q GetVehicleQuery) (dto.VehicleSummary, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.VehicleSummary{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.VehicleSummary{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	vehicle, err := unit.Vehicles().ByID(ctx, domainvehicles.VehicleID(q.VehicleID))
	if err != nil {
		return dto.VehicleSummary{}, err
	}
	return dto.MapVehicleSummary(vehicle), nil
}

var _ queries.Handler[GetVehicleQuery, dto.VehicleSummary] = (*GetVehicleHandler)(nil)
