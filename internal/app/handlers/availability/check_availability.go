package availability

import (
	"context"
	"time"

	"driveshare/internal/app/dto"
	"driveshare/internal/app/queries"
	domainavailability "driveshare/internal/domain/availability"
	"driveshare/internal/domain/shared/timewindow"
	domainvehicles "driveshare/internal/domain/vehicles"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	VehicleID string
	Start     time.Time
	End       time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

// CheckAvailabilityHandler serves the advisory half of the booking
// protocol. The report is a plain snapshot read; a caller holding an
// Available answer still races every concurrent commit.
type CheckAvailabilityHandler struct {
	Guard *domainavailability.Guard
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityReport, error) {
	window, err := timewindow.New(q.Start, q.End)
	if err != nil {
		return dto.AvailabilityReport{}, err
	}
	report, err := h.Guard.CheckSoftAvailability(ctx, domainvehicles.VehicleID(q.VehicleID), window)
	if err != nil {
		return dto.AvailabilityReport{}, err
	}
	return dto.AvailabilityReport{
		VehicleID: q.VehicleID,
		Window:    dto.WindowDTO{Start: window.Start, End: window.End},
		Available: report.Available,
		Conflicts: dto.MapConflicts(report.Conflicts),
	}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityReport] = (*CheckAvailabilityHandler)(nil)
