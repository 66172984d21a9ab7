package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const reserveAttempts = 3

// ReserveStore implements the guard's atomic check-and-reserve on top of
// the in-memory repositories. A single mutex serializes commits against
// each other, so of any set of concurrent overlapping attempts at most
// one succeeds; the losers observe the winner's block during their own
// re-check. Host blocks written through the calendar repository bypass
// the mutex, which the repository's version check covers: a commit whose
// calendar went stale mid-flight saves into ErrConcurrentUpdate and
// retries against the new block set.
type ReserveStore struct {
	mu           sync.Mutex
	calendars    *CalendarRepository
	reservations *ReservationRepository
}

func NewReserveStore(calendars *CalendarRepository, reservations *ReservationRepository) *ReserveStore {
	return &ReserveStore{calendars: calendars, reservations: reservations}
}

// ListObstacles is the advisory read behind the soft availability check.
// It takes no commit lock on purpose: the snapshot may be stale by the
// time the caller acts on it.
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
		obstacle := domainavailability.Obstacle{
			Ref:    block.Reference,
			Window: block.Window,
		}
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

// AtomicReserve re-checks overlap against the current calendar and inserts
// the reservation under one lock, the in-process equivalent of the store
// side transaction the production backend runs.
func (s *ReserveStore) AtomicReserve(ctx context.Context, cmd domainavailability.ReserveCommand) (domainavailability.ReserveReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
		return domainavailability.ReserveReceipt{}, conflictFromBlocks(ctx, s.reservations, conflicts, cmd.Window)
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
	// The version-checked save is the serialization point.
	if err := s.calendars.Save(ctx, calendar); err != nil {
		return domainavailability.ReserveReceipt{}, err
	}
	if err := s.reservations.Save(ctx, reservation); err != nil {
		return domainavailability.ReserveReceipt{}, err
	}

	return domainavailability.ReserveReceipt{
		ReservationID: string(reservation.ID),
		Status:        string(reservation.Status),
	}, nil
}

// Release drops the calendar block a cancelled reservation held.
func (s *ReserveStore) Release(ctx context.Context, vehicleID domainvehicles.VehicleID, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func conflictFromBlocks(ctx context.Context, reservations *ReservationRepository, blocks []domainavailability.Block, requested timewindow.Window) *domainavailability.ConflictError {
	kind := domainavailability.ConflictHostBlocked
	details := make([]domainavailability.ConflictDetail, 0, len(blocks))
	for _, block := range blocks {
		status := string(domainavailability.ReasonHostBlock)
		if block.Reason == domainavailability.ReasonBooking {
			kind = domainavailability.ConflictBooking
			status = string(domainbooking.StatusConfirmed)
			if reservation, err := reservations.ByID(ctx, domainbooking.ReservationID(block.Reference)); err == nil {
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
