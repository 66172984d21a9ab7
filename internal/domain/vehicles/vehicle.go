package vehicles

import (
	"context"
	"errors"
	"strings"
	"time"

	"driveshare/internal/domain/pricing"
	"driveshare/internal/domain/shared/events"
	"driveshare/internal/domain/shared/money"
)

var (
	ErrTitleRequired   = errors.New("vehicles: title is required")
	ErrPlateRequired   = errors.New("vehicles: registration plate is required")
	ErrSeatsRange      = errors.New("vehicles: seats must be between 1 and 9")
	ErrDailyRate       = errors.New("vehicles: daily rate must be non-negative")
	ErrMinTripDays     = errors.New("vehicles: minimum trip duration must be at least 1 day")
	ErrInvalidState    = errors.New("vehicles: invalid state transition")
	ErrAddressRequired = errors.New("vehicles: pickup address must be provided when activating")
	ErrVehicleNotFound = errors.New("vehicles: not found")
)

type VehicleID string
type HostID string

type State string

const (
	VehicleDraft     State = "DRAFT"
	VehicleActive    State = "ACTIVE"
	VehicleSuspended State = "SUSPENDED"
)

// ApprovalPolicy decides the initial status a successful booking receives.
type ApprovalPolicy string

const (
	ApprovalAuto   ApprovalPolicy = "AUTO_APPROVE"
	ApprovalManual ApprovalPolicy = "MANUAL_REVIEW"
)

type Address struct {
	Line1   string
	City    string
	Country string
	Lat     float64
	Lon     float64
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Country) != ""
}

type Vehicle struct {
	ID           VehicleID
	Host         HostID
	Title        string
	Description  string
	Make         string
	Model        string
	Year         int
	Plate        string
	Class        string
	Seats        int
	Transmission string
	Address      Address

	Currency            string
	DailyRateCents      int64
	WeeklyTotalCents    int64 // 0 means no weekly rate
	MonthlyTotalCents   int64 // 0 means no monthly rate
	InsuranceDailyCents int64

	MinTripDays int
	Approval    ApprovalPolicy
	State       State
	Tags        []string
	Rating      float64
	Photos      []string

	AvailableFrom time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id VehicleID) (*Vehicle, error)
	Save(ctx context.Context, vehicle *Vehicle) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID                  VehicleID
	Host                HostID
	Title               string
	Description         string
	Make                string
	Model               string
	Year                int
	Plate               string
	Class               string
	Seats               int
	Transmission        string
	Address             Address
	Currency            string
	DailyRateCents      int64
	WeeklyTotalCents    int64
	MonthlyTotalCents   int64
	InsuranceDailyCents int64
	MinTripDays         int
	Approval            ApprovalPolicy
	Tags                []string
	Photos              []string
	AvailableFrom       time.Time
	Now                 time.Time
}

func NewVehicle(params CreateParams) (*Vehicle, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(params.Plate) == "" {
		return nil, ErrPlateRequired
	}
	if params.Seats < 1 || params.Seats > 9 {
		return nil, ErrSeatsRange
	}
	if params.DailyRateCents < 0 || params.WeeklyTotalCents < 0 || params.MonthlyTotalCents < 0 || params.InsuranceDailyCents < 0 {
		return nil, ErrDailyRate
	}
	minDays := params.MinTripDays
	if minDays == 0 {
		minDays = 1
	}
	if minDays < 1 {
		return nil, ErrMinTripDays
	}
	approval := params.Approval
	if approval == "" {
		approval = ApprovalManual
	}
	currency := params.Currency
	if currency == "" {
		currency = "USD"
	}
	now := params.Now.UTC()
	v := &Vehicle{
		ID:                  params.ID,
		Host:                params.Host,
		Title:               params.Title,
		Description:         params.Description,
		Make:                params.Make,
		Model:               params.Model,
		Year:                params.Year,
		Plate:               params.Plate,
		Class:               params.Class,
		Seats:               params.Seats,
		Transmission:        params.Transmission,
		Address:             params.Address,
		Currency:            currency,
		DailyRateCents:      params.DailyRateCents,
		WeeklyTotalCents:    params.WeeklyTotalCents,
		MonthlyTotalCents:   params.MonthlyTotalCents,
		InsuranceDailyCents: params.InsuranceDailyCents,
		MinTripDays:         minDays,
		Approval:            approval,
		State:               VehicleDraft,
		Tags:                params.Tags,
		Photos:              params.Photos,
		AvailableFrom:       params.AvailableFrom,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return v, nil
}

// RateSchedule materializes the vehicle's configured rates for the
// pricing engine. Zero weekly/monthly totals mean the tier is absent.
func (v *Vehicle) RateSchedule() pricing.RateSchedule {
	schedule := pricing.RateSchedule{
		DailyRate: money.Money{Amount: v.DailyRateCents, Currency: v.Currency},
	}
	if v.WeeklyTotalCents > 0 {
		weekly := money.Money{Amount: v.WeeklyTotalCents, Currency: v.Currency}
		schedule.WeeklyTotal = &weekly
	}
	if v.MonthlyTotalCents > 0 {
		monthly := money.Money{Amount: v.MonthlyTotalCents, Currency: v.Currency}
		schedule.MonthlyTotal = &monthly
	}
	return schedule
}

// InsuranceDailyFee returns the base daily insurance fee for this vehicle.
func (v *Vehicle) InsuranceDailyFee() money.Money {
	return money.Money{Amount: v.InsuranceDailyCents, Currency: v.Currency}
}

// AutoApproves reports whether bookings skip host review.
func (v *Vehicle) AutoApproves() bool {
	return v.Approval == ApprovalAuto
}

func (v *Vehicle) Activate(now time.Time) error {
	if v.State != VehicleDraft && v.State != VehicleSuspended {
		return ErrInvalidState
	}
	if !v.Address.Valid() {
		return ErrAddressRequired
	}
	v.State = VehicleActive
	v.UpdatedAt = now.UTC()
	return nil
}

func (v *Vehicle) Suspend(now time.Time) error {
	if v.State != VehicleActive {
		return ErrInvalidState
	}
	v.State = VehicleSuspended
	v.UpdatedAt = now.UTC()
	return nil
}
