package dto

import (
	"time"

	domainavailability "driveshare/internal/domain/availability"
)

type WindowDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ConflictDetail struct {
	Ref     string    `json:"ref"`
	Window  WindowDTO `json:"window"`
	Status  string    `json:"status"`
	Overlap string    `json:"overlap,omitempty"`
}

type AvailabilityReport struct {
	VehicleID string           `json:"vehicle_id"`
	Window    WindowDTO        `json:"window"`
	Available bool             `json:"available"`
	Conflicts []ConflictDetail `json:"conflicts,omitempty"`
}

func MapConflicts(details []domainavailability.ConflictDetail) []ConflictDetail {
	if len(details) == 0 {
		return nil
	}
	out := make([]ConflictDetail, 0, len(details))
	for _, d := range details {
		out = append(out, ConflictDetail{
			Ref:     d.Ref,
			Window:  WindowDTO{Start: d.Window.Start, End: d.Window.End},
			Status:  d.Status,
			Overlap: string(d.Overlap),
		})
	}
	return out
}

type CalendarBlock struct {
	Window    WindowDTO `json:"window"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
}

type Calendar struct {
	VehicleID string          `json:"vehicle_id"`
	Blocks    []CalendarBlock `json:"blocks"`
}

func MapCalendar(calendar *domainavailability.VehicleCalendar) Calendar {
	out := Calendar{VehicleID: string(calendar.VehicleID)}
	for _, block := range calendar.Blocks {
		out.Blocks = append(out.Blocks, CalendarBlock{
			Window:    WindowDTO{Start: block.Window.Start, End: block.Window.End},
			Reason:    string(block.Reason),
			Reference: block.Reference,
		})
	}
	return out
}
