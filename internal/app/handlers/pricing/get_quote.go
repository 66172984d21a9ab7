package pricing

import (
	"context"
	"time"

	"driveshare/internal/app/dto"
	"driveshare/internal/app/queries"
	"driveshare/internal/app/uow"
	domainbooking "driveshare/internal/domain/booking"
	domainpricing "driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const getQuoteKey = "pricing.quote"

type GetQuoteQuery struct {
	VehicleID string
	Start     time.Time
	End       time.Time
	Insurance string
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

// GetQuoteHandler prices a prospective trip without reserving anything.
// Quotes are recomputed on every request and never persisted.
type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.Quote{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.Quote{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	vehicle, err := unit.Vehicles().ByID(ctx, domainvehicles.VehicleID(q.VehicleID))
	if err != nil {
		return dto.Quote{}, err
	}

	window := timewindow.Window{Start: q.Start.UTC(), End: q.End.UTC()}
	tier := parseInsuranceTier(q.Insurance)
	quote, err := domainpricing.ComputeQuote(vehicle.RateSchedule(), window, tier.DailyFee(vehicle.InsuranceDailyFee()))
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(quote), nil
}

func parseInsuranceTier(value string) domainbooking.InsuranceTier {
	switch value {
	case string(domainbooking.InsuranceNone):
		return domainbooking.InsuranceNone
	case string(domainbooking.InsurancePremium):
		return domainbooking.InsurancePremium
	default:
		return domainbooking.InsuranceStandard
	}
}

var _ queries.Handler[GetQuoteQuery, dto.Quote] = (*GetQuoteHandler)(nil)
