package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainbooking "driveshare/internal/domain/booking"
	domainvehicles "driveshare/internal/domain/vehicles"
)

// VehicleRepository is an in-memory implementation for tests and local runs.
type VehicleRepository struct {
	mu    sync.RWMutex
	items map[domainvehicles.VehicleID]*domainvehicles.Vehicle
}

// NewVehicleRepository builds an empty repository.
func NewVehicleRepository() *VehicleRepository {
	return &VehicleRepository{
		items: make(map[domainvehicles.VehicleID]*domainvehicles.Vehicle),
	}
}

// ByID returns a vehicle or vehicles.ErrVehicleNotFound.
func (r *VehicleRepository) ByID(ctx context.Context, id domainvehicles.VehicleID) (*domainvehicles.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vehicle, ok := r.items[id]
	if !ok {
		return nil, domainvehicles.ErrVehicleNotFound
	}
	return vehicle, nil
}

// Save stores/updates a vehicle entry.
func (r *VehicleRepository) Save(ctx context.Context, vehicle *domainvehicles.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[vehicle.ID] = vehicle
	return nil
}

// Search returns vehicles that satisfy the provided filters.
func (r *VehicleRepository) Search(ctx context.Context, params domainvehicles.SearchParams) (domainvehicles.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainvehicles.Vehicle, 0, len(r.items))
	for _, vehicle := range r.items {
		select {
		case <-ctx.Done():
			return domainvehicles.SearchResult{}, ctx.Err()
		default:
		}

		if opts.OnlyActive && vehicle.State != domainvehicles.VehicleActive {
			continue
		}
		if opts.Host != "" && vehicle.Host != opts.Host {
			continue
		}
		if len(opts.States) > 0 && !stateIncluded(vehicle.State, opts.States) {
			continue
		}
		if opts.City != "" && !strings.EqualFold(vehicle.Address.City, opts.City) {
			continue
		}
		if opts.Country != "" && !strings.EqualFold(vehicle.Address.Country, opts.Country) {
			continue
		}
		if len(opts.Classes) > 0 && !tokenIncluded(vehicle.Class, opts.Classes) {
			continue
		}
		if !tokensMatch(vehicle.Tags, opts.Tags) {
			continue
		}
		if opts.MinSeats > 0 && vehicle.Seats < opts.MinSeats {
			continue
		}
		if opts.PriceMinCents > 0 && vehicle.DailyRateCents < opts.PriceMinCents {
			continue
		}
		if opts.PriceMaxCents > 0 && vehicle.DailyRateCents > opts.PriceMaxCents {
			continue
		}
		if !opts.AvailableFrom.IsZero() && vehicle.AvailableFrom.After(opts.AvailableFrom) {
			continue
		}
		matches = append(matches, vehicle)
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domainvehicles.SortByPriceDesc:
			if matches[i].DailyRateCents == matches[j].DailyRateCents {
				return matches[i].Rating > matches[j].Rating
			}
			return matches[i].DailyRateCents > matches[j].DailyRateCents
		case domainvehicles.SortByRating:
			if matches[i].Rating == matches[j].Rating {
				return matches[i].DailyRateCents < matches[j].DailyRateCents
			}
			return matches[i].Rating > matches[j].Rating
		case domainvehicles.SortByNewest:
			if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
				return matches[i].DailyRateCents < matches[j].DailyRateCents
			}
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		default:
			if matches[i].DailyRateCents == matches[j].DailyRateCents {
				return matches[i].Rating > matches[j].Rating
			}
			return matches[i].DailyRateCents < matches[j].DailyRateCents
		}
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return domainvehicles.SearchResult{Items: matches[start:end], Total: total}, nil
}

func tokenIncluded(value string, allowed []string) bool {
	current := strings.TrimSpace(strings.ToLower(value))
	if current == "" {
		return false
	}
	for _, option := range allowed {
		if current == option {
			return true
		}
	}
	return false
}

func tokensMatch(values []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(values) == 0 {
		return false
	}
	index := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(strings.ToLower(value))
		if value == "" {
			continue
		}
		index[value] = struct{}{}
	}
	for _, token := range required {
		if _, ok := index[token]; !ok {
			return false
		}
	}
	return true
}

func stateIncluded(state domainvehicles.State, allowed []domainvehicles.State) bool {
	for _, candidate := range allowed {
		if state == candidate {
			return true
		}
	}
	return false
}

// ReservationRepository keeps reservation aggregates in memory.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.ReservationID]*domainbooking.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[domainbooking.ReservationID]*domainbooking.Reservation)}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainbooking.ReservationID) (*domainbooking.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reservation, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrReservationNotFound
	}
	return reservation, nil
}

func (r *ReservationRepository) Save(ctx context.Context, reservation *domainbooking.Reservation) error {
	if reservation == nil {
		return errors.New("memory: nil reservation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[reservation.ID] = reservation
	return nil
}

func (r *ReservationRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Reservation
	for _, reservation := range r.items {
		if reservation.RenterID == renterID {
			out = append(out, reservation)
		}
	}
	return out, nil
}

func (r *ReservationRepository) ListActiveByVehicle(ctx context.Context, vehicleID domainvehicles.VehicleID) ([]*domainbooking.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Reservation
	for _, reservation := range r.items {
		if reservation.VehicleID == vehicleID && reservation.Status.Active() {
			out = append(out, reservation)
		}
	}
	return out, nil
}
