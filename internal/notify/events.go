package notify

import "fmt"

// EventType names a real-time event emitted to connected clients.
type EventType string

const (
	EventBookingCreated       EventType = "booking_created"
	EventBookingAssigned      EventType = "booking_assigned"
	EventBookingConfirmed     EventType = "booking_confirmed"
	EventBookingRequest       EventType = "booking_request"
	EventBookingDenied        EventType = "booking_denied"
	EventBookingStatusUpdated EventType = "booking_status_updated"
	EventPickupOTPGenerated   EventType = "pickup_otp_generated"
	EventPickupReached        EventType = "pickup_reached"
	EventPickupConfirmed      EventType = "pickup_confirmed"
	EventDeliveryCompleted    EventType = "delivery_completed"
	EventDriverLocationUpdate EventType = "driver_location_update"
	EventNewFeedback          EventType = "new_feedback"
	EventFeedbackUpdated      EventType = "feedback_updated"
	EventVehicleAdded         EventType = "vehicle_added"
	EventVehicleUpdated       EventType = "vehicle_updated"
	EventDriverStatusUpdated  EventType = "driver_status_updated"
)

// Event is one message delivered to a channel.
type Event struct {
	Type EventType      `json:"type"`
	Data map[string]any `json:"data"`
}

// Channel is a logical notification address: a role-scoped room such as
// "customer:<id>" or "driver:<id>". The empty channel is never valid;
// broadcast delivery is a separate operation on the Sender.
type Channel string

// CustomerChannel returns the channel scoped to one customer.
func CustomerChannel(customerID string) Channel {
	return Channel(fmt.Sprintf("customer:%s", customerID))
}

// DriverChannel returns the channel scoped to one driver.
func DriverChannel(driverID string) Channel {
	return Channel(fmt.Sprintf("driver:%s", driverID))
}

// Sender delivers events to channels. Delivery is fire-and-forget,
// at-most-once: an event sent to a channel with no subscriber is dropped.
type Sender interface {
	// Send delivers an event to every session attached to the channel.
	Send(channel Channel, event Event)

	// Broadcast delivers an event to every connected session.
	Broadcast(event Event)
}
