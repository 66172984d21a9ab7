package availability

import (
	"context"
	"errors"
	"time"

	"driveshare/internal/app/commands"
	"driveshare/internal/app/middleware"
	"driveshare/internal/app/outbox"
	"driveshare/internal/app/uow"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const (
	blockWindowKey   = "availability.block"
	unblockWindowKey = "availability.unblock"
)

var (
	ErrUnitOfWorkRequired = errors.New("availability: unit of work required")
	ErrNotVehicleHost     = errors.New("availability: vehicle belongs to another host")
)

type BlockWindowCommand struct {
	VehicleID       string
	HostID          string
	Start           time.Time
	End             time.Time
	Reference       string
	IdempotencyKeyV string
}

func (c BlockWindowCommand) Key() string { return blockWindowKey }

func (c BlockWindowCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c BlockWindowCommand) ResultPrototype() any { return &BlockWindowResult{} }

type BlockWindowResult struct {
	VehicleID string `json:"vehicle_id"`
	Reference string `json:"reference"`
}

// BlockWindowHandler lets a host fence off a window manually. Blocks share
// the calendar with booking reservations, so a block can never land on an
// already reserved window and vice versa.
type BlockWindowHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *BlockWindowHandler) Handle(ctx context.Context, cmd BlockWindowCommand) (*BlockWindowResult, error) {
	unit, managed, err := beginIfNeeded(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = uow.ContextWithUnitOfWork(ctx, unit)
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	window, err := timewindow.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}
	vehicle, err := unit.Vehicles().ByID(ctx, domainvehicles.VehicleID(cmd.VehicleID))
	if err != nil {
		return nil, err
	}
	if string(vehicle.Host) != cmd.HostID {
		return nil, ErrNotVehicleHost
	}

	calendar, err := unit.Availability().Calendar(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	reference := cmd.Reference
	if reference == "" {
		reference = "host-block-" + now.Format("20060102T150405")
	}
	if err := calendar.BlockRange(window, reference, now); err != nil {
		return nil, err
	}
	if err := unit.Availability().Save(ctx, calendar); err != nil {
		return nil, err
	}

	pending := calendar.PendingEvents()
	calendar.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &BlockWindowResult{VehicleID: cmd.VehicleID, Reference: reference}, nil
}

type UnblockWindowCommand struct {
	VehicleID       string
	HostID          string
	Reference       string
	IdempotencyKeyV string
}

func (c UnblockWindowCommand) Key() string { return unblockWindowKey }

func (c UnblockWindowCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UnblockWindowCommand) ResultPrototype() any { return &UnblockWindowResult{} }

type UnblockWindowResult struct {
	VehicleID string `json:"vehicle_id"`
	Reference string `json:"reference"`
}

type UnblockWindowHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *UnblockWindowHandler) Handle(ctx context.Context, cmd UnblockWindowCommand) (*UnblockWindowResult, error) {
	unit, managed, err := beginIfNeeded(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = uow.ContextWithUnitOfWork(ctx, unit)
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	vehicle, err := unit.Vehicles().ByID(ctx, domainvehicles.VehicleID(cmd.VehicleID))
	if err != nil {
		return nil, err
	}
	if string(vehicle.Host) != cmd.HostID {
		return nil, ErrNotVehicleHost
	}

	calendar, err := unit.Availability().Calendar(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	if err := calendar.Release(cmd.Reference, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Availability().Save(ctx, calendar); err != nil {
		return nil, err
	}

	pending := calendar.PendingEvents()
	calendar.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &UnblockWindowResult{VehicleID: cmd.VehicleID, Reference: cmd.Reference}, nil
}

func beginIfNeeded(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, bool, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, false, nil
	}
	if factory == nil {
		return nil, false, ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	return unit, true, nil
}

func encoderOrDefault(encoder outbox.EventEncoder) outbox.EventEncoder {
	if encoder != nil {
		return encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[BlockWindowCommand, *BlockWindowResult] = (*BlockWindowHandler)(nil)
var _ commands.Handler[UnblockWindowCommand, *UnblockWindowResult] = (*UnblockWindowHandler)(nil)
var _ middleware.IdempotentCommand = (*BlockWindowCommand)(nil)
var _ middleware.IdempotentCommand = (*UnblockWindowCommand)(nil)
