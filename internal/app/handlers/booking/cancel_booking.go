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
)

const cancelBookingKey = "booking.cancel"

var ErrNotReservationOwner = errors.New("booking: reservation belongs to another renter")

type CancelBookingCommand struct {
	ReservationID   string
	RenterID        string
	Reason          string
	IdempotencyKeyV string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CancelBookingCommand) ResultPrototype() any { return &CancelBookingResult{} }

type CancelBookingResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Store      domainavailability.ReserveStore
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
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

	reservation, err := unit.Reservations().ByID(ctx, domainbooking.ReservationID(cmd.ReservationID))
	if err != nil {
		return nil, err
	}
	if reservation.RenterID != cmd.RenterID {
		return nil, ErrNotReservationOwner
	}

	now := time.Now().UTC()
	if err := reservation.Cancel(cmd.Reason, now); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, reservation); err != nil {
		return nil, err
	}
	// Freeing the calendar window lets the vehicle be rebooked immediately.
	if h.Store != nil {
		if err := h.Store.Release(ctx, reservation.VehicleID, string(reservation.ID)); err != nil && !errors.Is(err, domainavailability.ErrRangeNotFound) {
			return nil, err
		}
	}

	pending := reservation.PendingEvents()
	reservation.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &CancelBookingResult{ReservationID: string(reservation.ID), Status: string(reservation.Status)}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CancelBookingCommand)(nil)
