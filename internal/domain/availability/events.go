package availability

import (
	"time"

	"driveshare/internal/domain/shared/timewindow"
)

type CalendarBlocked struct {
	VehicleID string
	Window    timewindow.Window
	Reason    BlockReason
	At        time.Time
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return e.VehicleID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarReleased struct {
	VehicleID string
	Window    timewindow.Window
	Reason    BlockReason
	At        time.Time
}

func (e CalendarReleased) EventName() string     { return "calendar.released" }
func (e CalendarReleased) AggregateID() string   { return e.VehicleID }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	VehicleID string
	Window    timewindow.Window
	At        time.Time
}

func (e OverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.VehicleID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
