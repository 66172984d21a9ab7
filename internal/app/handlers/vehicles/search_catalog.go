package vehicles

import (
	"context"

	"driveshare/internal/app/dto"
	"driveshare/internal/app/queries"
	"driveshare/internal/app/uow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const searchCatalogKey = "vehicles.search"

type SearchCatalogQuery struct {
	Params domainvehicles.SearchParams
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.VehicleCatalog, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.VehicleCatalog{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.VehicleCatalog{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	params := q.Params
	params.OnlyActive = true
	result, err := unit.Vehicles().Search(ctx, params)
	if err != nil {
		return dto.VehicleCatalog{}, err
	}

	out := dto.VehicleCatalog{Total: result.Total, Items: make([]dto.VehicleSummary, 0, len(result.Items))}
	for _, vehicle := range result.Items {
		out.Items = append(out.Items, dto.MapVehicleSummary(vehicle))
	}
	return out, nil
}

var _ queries.Handler[SearchCatalogQuery, dto.VehicleCatalog] = (*SearchCatalogHandler)(nil)
