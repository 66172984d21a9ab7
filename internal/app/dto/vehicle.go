package dto

import (
	domainvehicles "driveshare/internal/domain/vehicles"
)

type VehicleSummary struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Make           string   `json:"make"`
	Model          string   `json:"model"`
	Year           int      `json:"year"`
	Class          string   `json:"class"`
	Seats          int      `json:"seats"`
	Transmission   string   `json:"transmission"`
	City           string   `json:"city"`
	Country        string   `json:"country"`
	DailyRate      MoneyDTO `json:"daily_rate"`
	WeeklyTotal    *MoneyDTO `json:"weekly_total,omitempty"`
	MonthlyTotal   *MoneyDTO `json:"monthly_total,omitempty"`
	InsuranceDaily MoneyDTO `json:"insurance_daily"`
	MinTripDays    int      `json:"min_trip_days"`
	Rating         float64  `json:"rating"`
	State          string   `json:"state"`
}

type VehicleCatalog struct {
	Items []VehicleSummary `json:"items"`
	Total int              `json:"total"`
}

func MapVehicleSummary(v *domainvehicles.Vehicle) VehicleSummary {
	out := VehicleSummary{
		ID:             string(v.ID),
		Title:          v.Title,
		Make:           v.Make,
		Model:          v.Model,
		Year:           v.Year,
		Class:          v.Class,
		Seats:          v.Seats,
		Transmission:   v.Transmission,
		City:           v.Address.City,
		Country:        v.Address.Country,
		DailyRate:      MoneyDTO{Amount: v.DailyRateCents, Currency: v.Currency},
		InsuranceDaily: MoneyDTO{Amount: v.InsuranceDailyCents, Currency: v.Currency},
		MinTripDays:    v.MinTripDays,
		Rating:         v.Rating,
		State:          string(v.State),
	}
	if v.WeeklyTotalCents > 0 {
		weekly := MoneyDTO{Amount: v.WeeklyTotalCents, Currency: v.Currency}
		out.WeeklyTotal = &weekly
	}
	if v.MonthlyTotalCents > 0 {
		monthly := MoneyDTO{Amount: v.MonthlyTotalCents, Currency: v.Currency}
		out.MonthlyTotal = &monthly
	}
	return out
}
