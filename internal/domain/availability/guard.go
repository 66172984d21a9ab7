package availability

import (
	"context"
	"errors"
	"fmt"

	"driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/timewindow"
	"driveshare/internal/domain/vehicles"
)

// ErrMinimumDuration rejects trips shorter than the vehicle's configured
// minimum before the store is ever touched.
var ErrMinimumDuration = errors.New("availability: trip shorter than vehicle minimum duration")

type ConflictKind string

const (
	ConflictBooking      ConflictKind = "BOOKING_CONFLICT"
	ConflictHostBlocked  ConflictKind = "HOST_BLOCKED"
	ConflictInvalidDates ConflictKind = "INVALID_DATES"
)

// ConflictError is the domain-level rejection of a commit or the detail
// carried by a soft-check report. Retrying it without new input will
// deterministically fail again.
type ConflictError struct {
	Kind      ConflictKind
	Conflicts []ConflictDetail
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("availability: %s (%d conflicting windows)", e.Kind, len(e.Conflicts))
}

type ConflictDetail struct {
	Ref     string
	Window  timewindow.Window
	Status  string
	Overlap timewindow.OverlapKind
}

// TransportError marks store or network failures as distinct from domain
// rejections. A commit that fails with a TransportError has an unknown
// outcome: the store may have reserved the window despite the error.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("availability: %s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Obstacle is one window the store holds against a vehicle: an active
// reservation or a manual host block.
type Obstacle struct {
	Ref       string
	Window    timewindow.Window
	Status    string
	HostBlock bool
}

// ReserveCommand is the single atomic check-and-reserve the store must
// provide. The store re-evaluates overlap against current committed state
// and inserts in one indivisible step.
type ReserveCommand struct {
	ReservationID string
	VehicleID     vehicles.VehicleID
	RenterID      string
	Window        timewindow.Window
	Insurance     string
	Quote         pricing.Quote
	AutoApprove   bool
}

// ReserveReceipt reports a successful commit; Status is whichever initial
// status the store assigned per the vehicle's approval policy.
type ReserveReceipt struct {
	ReservationID string
	Status        string
}

// ReserveStore is the persistent collaborator behind the guard. Reads are
// advisory and snapshot-consistent at the store's discretion; AtomicReserve
// must serialize concurrent overlapping commits per vehicle so that at
// most one succeeds.
type ReserveStore interface {
	ListObstacles(ctx context.Context, vehicleID vehicles.VehicleID) ([]Obstacle, error)
	AtomicReserve(ctx context.Context, cmd ReserveCommand) (ReserveReceipt, error)
	Release(ctx context.Context, vehicleID vehicles.VehicleID, reference string) error
}

// Report is the outcome of a soft availability check.
type Report struct {
	Available bool
	Conflicts []ConflictDetail
}

// BookingRequest is consumed exactly once by CommitBooking. MinTripDays
// and AutoApprove are copied from the vehicle configuration by the caller
// so the guard stays independent of the vehicle provider.
type BookingRequest struct {
	ReservationID string
	VehicleID     vehicles.VehicleID
	RenterID      string
	Window        timewindow.Window
	Insurance     string
	Quote         pricing.Quote
	MinTripDays   int
	AutoApprove   bool
}

// Guard implements the two-phase availability protocol: an advisory
// CheckSoftAvailability read for fast UI feedback, then an atomic
// CommitBooking that re-validates and reserves in one indivisible store
// operation. A caller who observed Available holds no guarantee at
// commit time; only the commit is authoritative.
type Guard struct {
	Store ReserveStore
}

func NewGuard(store ReserveStore) *Guard {
	return &Guard{Store: store}
}

// CheckSoftAvailability reads current obstacles and reports overlaps.
// It takes no lock: a concurrent commit may invalidate the report before
// the caller acts on it. Cancelling ctx discards the read with no
// compensating action required.
func (g *Guard) CheckSoftAvailability(ctx context.Context, vehicleID vehicles.VehicleID, window timewindow.Window) (Report, error) {
	if err := window.Validate(); err != nil {
		return Report{}, &ConflictError{Kind: ConflictInvalidDates}
	}
	obstacles, err := g.Store.ListObstacles(ctx, vehicleID)
	if err != nil {
		if ctx.Err() != nil {
			return Report{}, ctx.Err()
		}
		return Report{}, &TransportError{Op: "soft check", Err: err}
	}
	var conflicts []ConflictDetail
	for _, o := range obstacles {
		if !o.Window.Overlaps(window) {
			continue
		}
		conflicts = append(conflicts, ConflictDetail{
			Ref:     o.Ref,
			Window:  o.Window,
			Status:  o.Status,
			Overlap: o.Window.Classify(window),
		})
	}
	return Report{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// CommitBooking validates locally, then delegates to the store's atomic
// check-and-reserve. Domain rejections come back as *ConflictError or
// ErrMinimumDuration; anything else is wrapped as *TransportError and
// must be treated by callers as an ambiguous outcome.
//
// The operation is not idempotent: retrying a request whose first attempt
// committed collides with the caller's own reservation. Exactly-once
// semantics belong to the idempotency layer above.
func (g *Guard) CommitBooking(ctx context.Context, request BookingRequest) (ReserveReceipt, error) {
	if err := request.Window.Validate(); err != nil {
		return ReserveReceipt{}, &ConflictError{Kind: ConflictInvalidDates}
	}
	if request.MinTripDays > 0 && request.Quote.Days < request.MinTripDays {
		return ReserveReceipt{}, ErrMinimumDuration
	}
	receipt, err := g.Store.AtomicReserve(ctx, ReserveCommand{
		ReservationID: request.ReservationID,
		VehicleID:     request.VehicleID,
		RenterID:      request.RenterID,
		Window:        request.Window,
		Insurance:     request.Insurance,
		Quote:         request.Quote,
		AutoApprove:   request.AutoApprove,
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return ReserveReceipt{}, conflict
		}
		return ReserveReceipt{}, &TransportError{Op: "commit", Err: err}
	}
	return receipt, nil
}
