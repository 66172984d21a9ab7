package memory

import (
	"context"
	"errors"
	"sync"

	domainavailability "driveshare/internal/domain/availability"
	domainvehicles "driveshare/internal/domain/vehicles"
)

// ErrConcurrentUpdate is returned when a Save carries a stale Version.
var ErrConcurrentUpdate = errors.New("memory: concurrent calendar update")

// CalendarRepository keeps vehicle calendars in memory. Calendar hands out
// a copy and Save compares the incoming Version against the stored one, so
// readers never alias a calendar a writer is mutating and a stale writer
// cannot overwrite a block set it has not seen.
type CalendarRepository struct {
	mu        sync.RWMutex
	calendars map[domainvehicles.VehicleID]*domainavailability.VehicleCalendar
}

// NewCalendarRepository returns a repository initialized with empty calendars.
func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{
		calendars: make(map[domainvehicles.VehicleID]*domainavailability.VehicleCalendar),
	}
}

// Calendar retrieves a copy of the vehicle calendar. An unknown vehicle
// yields a fresh calendar at version zero; it is stored on first Save.
func (r *CalendarRepository) Calendar(ctx context.Context, id domainvehicles.VehicleID) (*domainavailability.VehicleCalendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.calendars[id]
	if !ok {
		return domainavailability.NewCalendar(id), nil
	}
	return cloneCalendar(stored), nil
}

// Save swaps the stored calendar for the given one if its Version still
// matches, then bumps the version. Stale saves get ErrConcurrentUpdate.
func (r *CalendarRepository) Save(ctx context.Context, calendar *domainavailability.VehicleCalendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current int64
	if stored, ok := r.calendars[calendar.VehicleID]; ok {
		current = stored.Version
	}
	if calendar.Version != current {
		return ErrConcurrentUpdate
	}
	next := cloneCalendar(calendar)
	next.Version = calendar.Version + 1
	r.calendars[calendar.VehicleID] = next
	calendar.Version = next.Version
	return nil
}

func cloneCalendar(c *domainavailability.VehicleCalendar) *domainavailability.VehicleCalendar {
	return &domainavailability.VehicleCalendar{
		VehicleID: c.VehicleID,
		Version:   c.Version,
		Blocks:    append([]domainavailability.Block(nil), c.Blocks...),
	}
}

var _ domainavailability.Repository = (*CalendarRepository)(nil)
