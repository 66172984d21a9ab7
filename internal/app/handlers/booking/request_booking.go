package booking

import (
	"context"
	"errors"
	"time"

	"driveshare/internal/app/commands"
	"driveshare/internal/app/middleware"
	"driveshare/internal/app/outbox"
	"driveshare/internal/app/uow"
	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	domainpricing "driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/events"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const requestBookingKey = "booking.request"

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrVehicleUnavailable = errors.New("booking: vehicle is not accepting bookings")
)

type RequestBookingCommand struct {
	CommandID       string
	VehicleID       string
	RenterID        string
	Start           time.Time
	End             time.Time
	Insurance       string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

// RequestBookingHandler drives the commit half of the two-phase booking
// protocol: quote, validate, then one atomic check-and-reserve through
// the availability guard. It never consults the advisory soft check;
// that read belongs to the UI and guarantees nothing at commit time.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Guard      *domainavailability.Guard
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	window := timewindow.Window{Start: cmd.Start.UTC(), End: cmd.End.UTC()}
	now := time.Now().UTC()

	vehicle, err := unit.Vehicles().ByID(ctx, domainvehicles.VehicleID(cmd.VehicleID))
	if err != nil {
		return nil, err
	}
	if vehicle.State != domainvehicles.VehicleActive {
		return nil, ErrVehicleUnavailable
	}

	tier := parseInsuranceTier(cmd.Insurance)
	quote, err := domainpricing.ComputeQuote(vehicle.RateSchedule(), window, tier.DailyFee(vehicle.InsuranceDailyFee()))
	if err != nil {
		return nil, err
	}
	if err := domainbooking.ValidateTripStart(window, now); err != nil {
		return nil, err
	}

	receipt, err := h.Guard.CommitBooking(ctx, domainavailability.BookingRequest{
		ReservationID: cmd.CommandID,
		VehicleID:     vehicle.ID,
		RenterID:      cmd.RenterID,
		Window:        window,
		Insurance:     string(tier),
		Quote:         quote,
		MinTripDays:   vehicle.MinTripDays,
		AutoApprove:   vehicle.AutoApproves(),
	})
	if err != nil {
		return nil, err
	}

	requested := domainbooking.ReservationRequested{
		ReservationID: domainbooking.ReservationID(receipt.ReservationID),
		VehicleID:     vehicle.ID,
		RenterID:      cmd.RenterID,
		Window:        window,
		Total:         quote.Total,
		Status:        domainbooking.Status(receipt.Status),
		At:            now,
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{requested}); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &RequestBookingResult{
		ReservationID: receipt.ReservationID,
		Status:        receipt.Status,
		TotalCents:    quote.Total.Amount,
		Currency:      quote.Total.Currency,
	}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
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

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
