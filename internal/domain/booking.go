package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusRequested     BookingStatus = "Requested"
	BookingStatusPending       BookingStatus = "Pending"
	BookingStatusBooked        BookingStatus = "Booked"
	BookingStatusRejected      BookingStatus = "Rejected"
	BookingStatusDenied        BookingStatus = "Denied"
	BookingStatusReachedPickup BookingStatus = "Reached Pickup"
	BookingStatusWaitingPickup BookingStatus = "Waiting for Pickup Confirmation"
	BookingStatusPickedUp      BookingStatus = "Order Picked Up"
	BookingStatusInTransit     BookingStatus = "In Transit"
	BookingStatusDelivered     BookingStatus = "Delivered"
	BookingStatusCompleted     BookingStatus = "Completed"
	BookingStatusCancelled     BookingStatus = "Cancelled"
)

// validTransitions is the booking lifecycle graph. A status absent from the
// map is unknown; a status mapping to an empty list is terminal.
// Rejected -> Pending is the explicit admin reopen path for reassignment.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusRequested:     {BookingStatusPending, BookingStatusDenied, BookingStatusCancelled},
	BookingStatusPending:       {BookingStatusBooked, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusBooked:        {BookingStatusReachedPickup, BookingStatusCancelled},
	BookingStatusReachedPickup: {BookingStatusPickedUp, BookingStatusWaitingPickup, BookingStatusCancelled},
	BookingStatusWaitingPickup: {BookingStatusPickedUp, BookingStatusCancelled},
	BookingStatusPickedUp:      {BookingStatusInTransit, BookingStatusDelivered, BookingStatusCancelled},
	BookingStatusInTransit:     {BookingStatusDelivered, BookingStatusCancelled},
	BookingStatusRejected:      {BookingStatusPending},
	BookingStatusDenied:        {},
	BookingStatusDelivered:     {},
	BookingStatusCompleted:     {},
	BookingStatusCancelled:     {},
}

// IsValid reports whether s is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is permitted from s.
func (s BookingStatus) IsTerminal() bool {
	next, ok := validTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether the lifecycle graph allows moving from s to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// BusyStatuses are the statuses during which a booking occupies its driver
// and vehicle. Availability is recomputed from these on every read.
var BusyStatuses = []BookingStatus{
	BookingStatusBooked,
	BookingStatusReachedPickup,
	BookingStatusPickedUp,
	BookingStatusInTransit,
}

// IsBusy reports whether a booking in s occupies its driver and vehicle.
func (s BookingStatus) IsBusy() bool {
	for _, busy := range BusyStatuses {
		if s == busy {
			return true
		}
	}
	return false
}

// Location is a geographic point with an optional human-readable address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Booking represents one delivery request from creation to completion.
type Booking struct {
	ID                  string
	CustomerID          string
	CustomerName        string
	CustomerAddress     string
	DriverID            string // empty until assigned
	DriverName          string
	VehicleID           string // empty until assigned
	VehicleName         string
	VehicleType         string
	Status              BookingStatus
	PickupLocation      *Location
	DestinationLocation *Location
	Distance            float64 // kilometers
	Price               float64
	PickupOTP           string // empty when no code outstanding
	OTPGeneratedAt      time.Time
	DriverLocation      *Location // updated during active transit
	Version             int64     // optimistic-lock counter, incremented per update
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OTPValidity is how long a pickup OTP remains verifiable after generation.
const OTPValidity = 30 * time.Minute

// OTPExpired reports whether the stored OTP is stale at the given instant.
// The boundary is strict: at exactly 30 minutes the code is still valid.
func (b *Booking) OTPExpired(now time.Time) bool {
	if b.OTPGeneratedAt.IsZero() {
		return false
	}
	return now.Sub(b.OTPGeneratedAt) > OTPValidity
}
