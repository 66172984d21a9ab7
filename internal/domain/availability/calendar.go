package availability

import (
	"context"
	"errors"
	"time"

	"driveshare/internal/domain/shared/events"
	"driveshare/internal/domain/shared/timewindow"
	"driveshare/internal/domain/vehicles"
)

var (
	ErrOverlappingRange = errors.New("availability: window overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: blocked range not found")
)

type BlockReason string

const (
	ReasonBooking   BlockReason = "BOOKING"
	ReasonHostBlock BlockReason = "HOST_BLOCK"
)

type Block struct {
	Window    timewindow.Window
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

// VehicleCalendar owns every window a vehicle is unavailable for, both
// committed bookings and manual host blocks. The Version field backs the
// store's optimistic check-and-reserve.
type VehicleCalendar struct {
	VehicleID vehicles.VehicleID
	Blocks    []Block
	Version   int64
	events.EventRecorder
}

type Repository interface {
	Calendar(ctx context.Context, id vehicles.VehicleID) (*VehicleCalendar, error)
	Save(ctx context.Context, calendar *VehicleCalendar) error
}

func NewCalendar(id vehicles.VehicleID) *VehicleCalendar {
	return &VehicleCalendar{VehicleID: id}
}

func (c *VehicleCalendar) CanReserve(w timewindow.Window) bool {
	for _, block := range c.Blocks {
		if block.Window.Overlaps(w) {
			return false
		}
	}
	return true
}

// ConflictingBlocks returns every block overlapping the window, in
// calendar order.
func (c *VehicleCalendar) ConflictingBlocks(w timewindow.Window) []Block {
	var out []Block
	for _, block := range c.Blocks {
		if block.Window.Overlaps(w) {
			out = append(out, block)
		}
	}
	return out
}

func (c *VehicleCalendar) Reserve(w timewindow.Window, reservationID string, now time.Time) error {
	if !c.CanReserve(w) {
		c.Record(OverbookingPrevented{VehicleID: string(c.VehicleID), Window: w, At: now})
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, Block{Window: w, Reason: ReasonBooking, Reference: reservationID, CreatedAt: now.UTC()})
	c.Record(CalendarBlocked{VehicleID: string(c.VehicleID), Window: w, Reason: ReasonBooking, At: now})
	return nil
}

func (c *VehicleCalendar) BlockRange(w timewindow.Window, reference string, now time.Time) error {
	if !c.CanReserve(w) {
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, Block{Window: w, Reason: ReasonHostBlock, Reference: reference, CreatedAt: now.UTC()})
	c.Record(CalendarBlocked{VehicleID: string(c.VehicleID), Window: w, Reason: ReasonHostBlock, At: now})
	return nil
}

func (c *VehicleCalendar) Release(reference string, now time.Time) error {
	idx := -1
	for i, block := range c.Blocks {
		if block.Reference == reference {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx], c.Blocks[idx+1:]...)
	c.Record(CalendarReleased{VehicleID: string(c.VehicleID), Window: removed.Window, Reason: removed.Reason, At: now})
	return nil
}
