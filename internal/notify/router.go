package notify

import (
	"log"

	"dispatch/internal/domain"
)

// Router maps booking lifecycle transitions to channel-scoped events.
// Delivery is best-effort and never blocks the caller: a failed transition
// must not reach the Router at all, and the Router never returns an error
// for a channel with no subscriber.
type Router struct {
	sender Sender
}

// NewRouter creates a new Router on top of a Sender. Tests substitute a
// fake Sender to capture emitted events.
func NewRouter(sender Sender) *Router {
	return &Router{sender: sender}
}

// BookingCreated fires after a new booking is persisted in Requested state.
func (r *Router) BookingCreated(booking *domain.Booking) {
	r.broadcast(Event{Type: EventBookingCreated, Data: bookingPayload(booking)})
}

// BookingAssigned fires after an admin dispatches a driver (status Pending).
// The driver channel receives the full assignment detail; the admin
// dashboards receive the catch-all status update.
func (r *Router) BookingAssigned(booking *domain.Booking) {
	r.send(DriverChannel(booking.DriverID), Event{
		Type: EventBookingAssigned,
		Data: map[string]any{
			"id":                  booking.ID,
			"status":              booking.Status,
			"customerName":        booking.CustomerName,
			"driverId":            booking.DriverID,
			"driverName":          booking.DriverName,
			"vehicleName":         booking.VehicleName,
			"vehicleType":         booking.VehicleType,
			"distance":            booking.Distance,
			"price":               booking.Price,
			"pickupLocation":      booking.PickupLocation,
			"destinationLocation": booking.DestinationLocation,
		},
	})
	r.BookingStatusUpdated(booking)
}

// BookingConfirmed fires after a driver accepts (status Booked). The
// customer receives the fresh pickup OTP; the driver receives the mirrored
// assignment detail.
func (r *Router) BookingConfirmed(booking *domain.Booking, otp string) {
	r.send(CustomerChannel(booking.CustomerID), Event{
		Type: EventBookingConfirmed,
		Data: map[string]any{
			"id":                  booking.ID,
			"status":              booking.Status,
			"driverId":            booking.DriverID,
			"driverName":          booking.DriverName,
			"vehicleId":           booking.VehicleID,
			"vehicleName":         booking.VehicleName,
			"pickupLocation":      booking.PickupLocation,
			"destinationLocation": booking.DestinationLocation,
			"distance":            booking.Distance,
			"price":               booking.Price,
			"customerName":        booking.CustomerName,
			"createdAt":           booking.CreatedAt,
			"otp":                 otp,
		},
	})
	r.send(DriverChannel(booking.DriverID), Event{
		Type: EventBookingRequest,
		Data: bookingPayload(booking),
	})
	r.BookingStatusUpdated(booking)
}

// BookingRejected fires after a driver declines a Pending booking. The
// assignment has already been cleared, so the stale driver id is passed
// explicitly for the dashboard payload.
func (r *Router) BookingRejected(booking *domain.Booking) {
	r.broadcast(Event{
		Type: EventBookingStatusUpdated,
		Data: map[string]any{
			"id":         booking.ID,
			"status":     booking.Status,
			"customerId": booking.CustomerID,
			"driverId":   nil,
			"vehicleId":  nil,
		},
	})
}

// BookingDenied fires after an admin denies a Requested booking.
func (r *Router) BookingDenied(booking *domain.Booking) {
	r.send(CustomerChannel(booking.CustomerID), Event{
		Type: EventBookingDenied,
		Data: map[string]any{"id": booking.ID},
	})
	r.BookingStatusUpdated(booking)
}

// PickupOTPGenerated fires whenever a pickup OTP is issued or reissued. The
// customer always receives it; the driver channel is included when known.
func (r *Router) PickupOTPGenerated(booking *domain.Booking, otp string) {
	data := map[string]any{
		"id":             booking.ID,
		"otp":            otp,
		"status":         booking.Status,
		"driverLocation": booking.DriverLocation,
	}

	r.send(CustomerChannel(booking.CustomerID), Event{Type: EventPickupOTPGenerated, Data: data})
	if booking.DriverID != "" {
		r.send(DriverChannel(booking.DriverID), Event{Type: EventPickupOTPGenerated, Data: data})
	}
}

// PickupReached acks the driver that their arrival was recorded.
func (r *Router) PickupReached(booking *domain.Booking) {
	r.send(DriverChannel(booking.DriverID), Event{
		Type: EventPickupReached,
		Data: map[string]any{"id": booking.ID, "status": booking.Status},
	})
}

// PickupConfirmed fires after a successful OTP verification.
func (r *Router) PickupConfirmed(booking *domain.Booking) {
	data := map[string]any{
		"id":                  booking.ID,
		"status":              booking.Status,
		"pickupLocation":      booking.PickupLocation,
		"destinationLocation": booking.DestinationLocation,
		"driverLocation":      booking.DriverLocation,
	}

	r.send(CustomerChannel(booking.CustomerID), Event{Type: EventPickupConfirmed, Data: data})
	r.send(DriverChannel(booking.DriverID), Event{Type: EventPickupConfirmed, Data: data})
	r.BookingStatusUpdated(booking)
}

// DeliveryCompleted fires after the driver marks the booking Delivered. The
// broadcast lets admin dashboards see the driver free up for new work.
func (r *Router) DeliveryCompleted(booking *domain.Booking) {
	data := map[string]any{
		"id":             booking.ID,
		"status":         booking.Status,
		"driverLocation": booking.DriverLocation,
		"driverId":       booking.DriverID,
		"driverName":     booking.DriverName,
	}

	r.send(CustomerChannel(booking.CustomerID), Event{Type: EventDeliveryCompleted, Data: data})
	r.send(DriverChannel(booking.DriverID), Event{Type: EventDeliveryCompleted, Data: data})
	r.broadcast(Event{Type: EventDeliveryCompleted, Data: data})
}

// BookingStatusUpdated is the catch-all broadcast dashboards refresh on.
func (r *Router) BookingStatusUpdated(booking *domain.Booking) {
	r.broadcast(Event{
		Type: EventBookingStatusUpdated,
		Data: map[string]any{
			"id":         booking.ID,
			"status":     booking.Status,
			"customerId": booking.CustomerID,
			"driverId":   booking.DriverID,
			"vehicleId":  booking.VehicleID,
		},
	})
}

// NewFeedback notifies the driver of a fresh rating with their updated stats.
func (r *Router) NewFeedback(feedback *domain.Feedback, stats *domain.DriverStats) {
	r.send(DriverChannel(feedback.DriverID), Event{
		Type: EventNewFeedback,
		Data: map[string]any{"feedback": feedback, "driverStats": stats},
	})
}

// FeedbackUpdated notifies the driver that an existing rating was edited.
func (r *Router) FeedbackUpdated(feedback *domain.Feedback, stats *domain.DriverStats) {
	r.send(DriverChannel(feedback.DriverID), Event{
		Type: EventFeedbackUpdated,
		Data: map[string]any{"feedback": feedback, "driverStats": stats},
	})
}

// VehicleAdded fires after an admin registers a vehicle.
func (r *Router) VehicleAdded(vehicle *domain.Vehicle) {
	r.broadcast(Event{Type: EventVehicleAdded, Data: map[string]any{"vehicle": vehicle}})
}

// VehicleUpdated fires after a vehicle record changes.
func (r *Router) VehicleUpdated(vehicle *domain.Vehicle) {
	r.broadcast(Event{Type: EventVehicleUpdated, Data: map[string]any{"vehicle": vehicle}})
}

// DriverStatusUpdated fires when a driver toggles their availability flag.
func (r *Router) DriverStatusUpdated(driverID string, active bool) {
	r.broadcast(Event{
		Type: EventDriverStatusUpdated,
		Data: map[string]any{"driverId": driverID, "isActive": active},
	})
}

func (r *Router) send(channel Channel, event Event) {
	if r.sender == nil {
		return
	}
	log.Printf("[NOTIFY] event=%s channel=%s", event.Type, channel)
	r.sender.Send(channel, event)
}

func (r *Router) broadcast(event Event) {
	if r.sender == nil {
		return
	}
	log.Printf("[NOTIFY] event=%s broadcast", event.Type)
	r.sender.Broadcast(event)
}

// bookingPayload is the full booking object used by events that mirror the
// whole record.
func bookingPayload(b *domain.Booking) map[string]any {
	return map[string]any{
		"id":                  b.ID,
		"customerId":          b.CustomerID,
		"customerName":        b.CustomerName,
		"customerAddress":     b.CustomerAddress,
		"driverId":            b.DriverID,
		"driverName":          b.DriverName,
		"vehicleId":           b.VehicleID,
		"vehicleName":         b.VehicleName,
		"vehicleType":         b.VehicleType,
		"status":              b.Status,
		"pickupLocation":      b.PickupLocation,
		"destinationLocation": b.DestinationLocation,
		"distance":            b.Distance,
		"price":               b.Price,
		"createdAt":           b.CreatedAt,
	}
}
