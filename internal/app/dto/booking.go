package dto

import (
	"time"

	domainbooking "driveshare/internal/domain/booking"
	domainvehicles "driveshare/internal/domain/vehicles"
)

type BookingVehicleSnapshot struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Make  string `json:"make"`
	Model string `json:"model"`
	City  string `json:"city"`
}

type RenterBookingSummary struct {
	ID        string                 `json:"id"`
	Vehicle   BookingVehicleSnapshot `json:"vehicle"`
	Start     time.Time              `json:"start"`
	End       time.Time              `json:"end"`
	Days      int                    `json:"days"`
	Insurance string                 `json:"insurance"`
	Status    string                 `json:"status"`
	Total     MoneyDTO               `json:"total"`
	CreatedAt time.Time              `json:"created_at"`
}

type RenterBookingCollection struct {
	Items []RenterBookingSummary `json:"items"`
}

func MapRenterBookingSummary(reservation *domainbooking.Reservation, vehicle *domainvehicles.Vehicle) RenterBookingSummary {
	snapshot := BookingVehicleSnapshot{
		ID: string(reservation.VehicleID),
	}
	if vehicle != nil {
		snapshot.Title = vehicle.Title
		snapshot.Make = vehicle.Make
		snapshot.Model = vehicle.Model
		snapshot.City = vehicle.Address.City
	}
	return RenterBookingSummary{
		ID:        string(reservation.ID),
		Vehicle:   snapshot,
		Start:     reservation.Window.Start,
		End:       reservation.Window.End,
		Days:      reservation.Price.Days,
		Insurance: string(reservation.Insurance),
		Status:    string(reservation.Status),
		Total:     MapMoney(reservation.Price.Total),
		CreatedAt: reservation.CreatedAt,
	}
}
