package mongo

import (
	"context"
	"errors"
	"time"

	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const reserveAttempts = 3

// ReserveStore implements the guard's check-and-reserve against Mongo.
// Serialization rides on the calendar document's version: the conflict
// check and the block insert are committed with one version-filtered
// update, so two overlapping commits both re-reading version N cannot
// both write N+1. The loser re-reads and re-checks, now seeing the
// winner's block.
type ReserveStore struct {
	calendars    domainavailability.Repository
	reservations domainbooking.Repository
}

func NewReserveStore(calendars domainavailability.Repository, reservations domainbooking.Repository) *ReserveStore {
	return &ReserveStore{calendars: calendars, reservations: reservations}
}

func (s *ReserveStore) ListObstacles(ctx context.Context, vehicleID domainvehicles.VehicleID) ([]domainavailability.Obstacle, error) {
	calendar, err := s.calendars.Calendar(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservations.ListActiveByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	statusByRef := make(map[string]string, len(reservations))
	for _, reservation := range reservations {
		statusByRef[string(reservation.ID)] = string(reservation.Status)
	}
	out := make([]domainavailability.Obstacle, 0, len(calendar.Blocks))
	for _, block := range calendar.Blocks {
		obstacle := domainavailability.Obstacle{Ref: block.Reference, Window: block.Window}
		if block.Reason == domainavailability.ReasonHostBlock {
			obstacle.Status = string(domainavailability.ReasonHostBlock)
			obstacle.HostBlock = true
		} else if status, ok := statusByRef[block.Reference]; ok {
			obstacle.Status = status
		} else {
			obstacle.Status = string(domainbooking.StatusConfirmed)
		}
		out = append(out, obstacle)
	}
	return out, nil
}

func (s *ReserveStore) AtomicReserve(ctx context.Context, cmd domainavailability.ReserveCommand) (domainavailability.ReserveReceipt, error) {
	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domainavailability.ReserveReceipt{}, err
		}
		receipt, err := s.tryReserve(ctx, cmd)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ErrConcurrentUpdate) {
			return domainavailability.ReserveReceipt{}, err
		}
		lastErr = err
	}
	return domainavailability.ReserveReceipt{}, lastErr
}

func (s *ReserveStore) tryReserve(ctx context.Context, cmd domainavailability.ReserveCommand) (domainavailability.ReserveReceipt, error) {
	calendar, err := s.calendars.Calendar(ctx, cmd.VehicleID)
	if err != nil {
		return domainavailability.ReserveReceipt{}, err
	}
	if conflicts := calendar.ConflictingBlocks(cmd.Window); len(conflicts) > 0 {
		return domainavailability.ReserveReceipt{}, s.conflictFromBlocks(ctx, conflicts, cmd.Window)
	}

	initial := domainbooking.StatusPending
	if cmd.AutoApprove {
		initial = domainbooking.StatusConfirmed
	}
	now := time.Now().UTC()
	reservation, err := domainbooking.NewReservation(domainbooking.CreateParams{
		ID:        domainbooking.ReservationID(cmd.ReservationID),
		VehicleID: cmd.VehicleID,
		RenterID:  cmd.RenterID,
		Window:    cmd.Window,
		Insurance: domainbooking.InsuranceTier(cmd.Insurance),
		Price:     cmd.Quote,
		Initial:   initial,
		CreatedAt: now,
	})
	if err != nil {
		return domainavailability.ReserveReceipt{}, &domainavailability.ConflictError{Kind: domainavailability.ConflictInvalidDates}
	}
	if err := calendar.Reserve(cmd.Window, cmd.ReservationID, now); err != nil {
		return domainavailability.ReserveReceipt{}, &domainavailability.ConflictError{Kind: domainavailability.ConflictBooking}
	}
	// The version-filtered save is the serialization point.
	if err := s.calendars.Save(ctx, calendar); err != nil {
		return domainavailability.ReserveReceipt{}, err
	}
	if err := s.reservations.Save(ctx, reservation); err != nil {
		// The calendar block is already committed; drop it again or the
		// window stays held by a reservation that was never written.
		if relErr := s.Release(ctx, cmd.VehicleID, cmd.ReservationID); relErr != nil {
			return domainavailability.ReserveReceipt{}, errors.Join(err, relErr)
		}
		return domainavailability.ReserveReceipt{}, err
	}
	return domainavailability.ReserveReceipt{
		ReservationID: string(reservation.ID),
		Status:        string(reservation.Status),
	}, nil
}

func (s *ReserveStore) Release(ctx context.Context, vehicleID domainvehicles.VehicleID, reference string) error {
	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		calendar, err := s.calendars.Calendar(ctx, vehicleID)
		if err != nil {
			return err
		}
		if err := calendar.Release(reference, time.Now().UTC()); err != nil {
			return err
		}
		err = s.calendars.Save(ctx, calendar)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConcurrentUpdate) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (s *ReserveStore) conflictFromBlocks(ctx context.Context, blocks []domainavailability.Block, requested timewindow.Window) *domainavailability.ConflictError {
	kind := domainavailability.ConflictHostBlocked
	details := make([]domainavailability.ConflictDetail, 0, len(blocks))
	for _, block := range blocks {
		status := string(domainavailability.ReasonHostBlock)
		if block.Reason == domainavailability.ReasonBooking {
			kind = domainavailability.ConflictBooking
			status = string(domainbooking.StatusConfirmed)
			if reservation, err := s.reservations.ByID(ctx, domainbooking.ReservationID(block.Reference)); err == nil {
				status = string(reservation.Status)
			}
		}
		details = append(details, domainavailability.ConflictDetail{
			Ref:     block.Reference,
			Window:  block.Window,
			Status:  status,
			Overlap: block.Window.Classify(requested),
		})
	}
	return &domainavailability.ConflictError{Kind: kind, Conflicts: details}
}

var _ domainavailability.ReserveStore = (*ReserveStore)(nil)
