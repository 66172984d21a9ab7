package booking

import (
	"time"

	"driveshare/internal/domain/shared/money"
	"driveshare/internal/domain/shared/timewindow"
	"driveshare/internal/domain/vehicles"
)

type ReservationRequested struct {
	ReservationID ReservationID
	VehicleID     vehicles.VehicleID
	RenterID      string
	Window        timewindow.Window
	Total         money.Money
	Status        Status
	At            time.Time
}

func (e ReservationRequested) EventName() string     { return "reservation.requested" }
func (e ReservationRequested) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationRequested) OccurredAt() time.Time { return e.At }

type ReservationConfirmed struct {
	ReservationID ReservationID
	VehicleID     vehicles.VehicleID
	Window        timewindow.Window
	At            time.Time
}

func (e ReservationConfirmed) EventName() string     { return "reservation.confirmed" }
func (e ReservationConfirmed) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationConfirmed) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	ReservationID ReservationID
	VehicleID     vehicles.VehicleID
	Reason        string
	At            time.Time
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }

type TripStarted struct {
	ReservationID ReservationID
	VehicleID     vehicles.VehicleID
	At            time.Time
}

func (e TripStarted) EventName() string     { return "reservation.trip_started" }
func (e TripStarted) AggregateID() string   { return string(e.ReservationID) }
func (e TripStarted) OccurredAt() time.Time { return e.At }

type TripCompleted struct {
	ReservationID ReservationID
	VehicleID     vehicles.VehicleID
	At            time.Time
}

func (e TripCompleted) EventName() string     { return "reservation.trip_completed" }
func (e TripCompleted) AggregateID() string   { return string(e.ReservationID) }
func (e TripCompleted) OccurredAt() time.Time { return e.At }
