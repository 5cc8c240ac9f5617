package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ──────────────────────────────────────────────
// FIXTURE
// ──────────────────────────────────────────────

// dispatchFixture wires a BookingService against mocks. now controls the
// OTP clock; nil means wall clock.
type dispatchFixture struct {
	bookings  *MockBookingRepository
	vehicles  *MockVehicleRepository
	users     *MockUserRepository
	feedback  *MockFeedbackRepository
	sender    *MockSender
	locks     *MockLockStore
	locations *MockLocationStore
	booking   *service.BookingService
}

func newDispatchFixture(now func() time.Time) *dispatchFixture {
	f := &dispatchFixture{
		bookings:  NewMockBookingRepository(),
		vehicles:  NewMockVehicleRepository(),
		users:     NewMockUserRepository(),
		feedback:  NewMockFeedbackRepository(),
		sender:    NewMockSender(),
		locks:     NewMockLockStore(),
		locations: NewMockLocationStore(),
	}

	otp := service.NewOTPService()
	if now != nil {
		otp = service.NewOTPServiceWithClock(now)
	}

	availability := service.NewAvailabilityService(f.bookings, f.vehicles, f.users)
	f.booking = service.NewBookingService(
		f.bookings, f.vehicles, f.users,
		availability, otp, notify.NewRouter(f.sender), f.locks, f.locations,
		15.0,
	)
	return f
}

// seedDriver adds an approved, active driver with one active vehicle.
func (f *dispatchFixture) seedDriver(driverID string) {
	f.users.AddUser(&domain.User{
		ID:       driverID,
		Email:    driverID + "@example.com",
		Name:     "Driver " + driverID,
		Role:     domain.RoleDriver,
		Approved: true,
		Active:   true,
	})
	f.vehicles.AddVehicle(&domain.Vehicle{
		ID:       "vehicle-" + driverID,
		DriverID: driverID,
		Name:     "Tata Ace " + driverID,
		Number:   "KA-01-" + driverID,
		Type:     "Tata Ace",
		Active:   true,
	})
}

// seedBooking adds a booking in the given status.
func (f *dispatchFixture) seedBooking(id string, status domain.BookingStatus) *domain.Booking {
	b := &domain.Booking{
		ID:                  id,
		CustomerID:          "customer-1",
		CustomerName:        "Asha",
		Status:              status,
		PickupLocation:      &domain.Location{Lat: 12.97, Lng: 77.59},
		DestinationLocation: &domain.Location{Lat: 12.92, Lng: 77.61},
		Distance:            8.4,
		Price:               126,
		CreatedAt:           time.Now(),
	}
	f.bookings.AddBooking(b)
	return b
}

// ──────────────────────────────────────────────
// FULL LIFECYCLE
// ──────────────────────────────────────────────

func TestBookingLifecycle_HappyPath(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	f.seedDriver("driver-1")
	ctx := context.Background()

	// Customer creates the booking.
	created, err := f.booking.CreateBooking(ctx, service.CreateBookingRequest{
		CustomerID:          "customer-1",
		CustomerName:        "Asha",
		PickupLocation:      &domain.Location{Lat: 12.97, Lng: 77.59},
		DestinationLocation: &domain.Location{Lat: 12.92, Lng: 77.61},
		Distance:            8.4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := created.Booking.ID
	if created.Booking.Status != domain.BookingStatusRequested {
		t.Fatalf("expected Requested, got %s", created.Booking.Status)
	}

	// Admin dispatches a driver.
	b, err := f.booking.AssignDriver(ctx, service.AssignDriverRequest{BookingID: id, DriverID: "driver-1"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if b.Status != domain.BookingStatusPending {
		t.Fatalf("expected Pending, got %s", b.Status)
	}
	if b.VehicleID != "vehicle-driver-1" {
		t.Errorf("expected driver's vehicle to be attached, got %q", b.VehicleID)
	}

	// Driver accepts; an OTP is issued.
	b, err = f.booking.DriverRespond(ctx, service.DriverRespondRequest{BookingID: id, DriverID: "driver-1", Accept: true})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if b.Status != domain.BookingStatusBooked {
		t.Fatalf("expected Booked, got %s", b.Status)
	}
	if len(b.PickupOTP) != 6 {
		t.Fatalf("expected 6-digit OTP, got %q", b.PickupOTP)
	}
	firstOTP := b.PickupOTP

	// Driver arrives; the OTP is always reissued.
	b, err = f.booking.ReachedPickup(ctx, service.ReachedPickupRequest{
		BookingID: id, DriverID: "driver-1",
		Location: &domain.Location{Lat: 12.969, Lng: 77.592},
	})
	if err != nil {
		t.Fatalf("reached pickup: %v", err)
	}
	if b.Status != domain.BookingStatusReachedPickup {
		t.Fatalf("expected Reached Pickup, got %s", b.Status)
	}
	if b.DriverLocation == nil {
		t.Error("expected driver location to be recorded")
	}
	if b.PickupOTP == firstOTP {
		t.Error("expected arrival to replace the booking code")
	}

	// Customer hands over the fresh code.
	b, err = f.booking.VerifyOTP(ctx, service.VerifyOTPRequest{BookingID: id, OTP: b.PickupOTP})
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if b.Status != domain.BookingStatusPickedUp {
		t.Fatalf("expected Order Picked Up, got %s", b.Status)
	}
	if b.PickupOTP != "" {
		t.Error("expected OTP to be cleared after verification")
	}

	// Driver moves out and completes.
	if _, err = f.booking.StartTransit(ctx, id, "driver-1", nil); err != nil {
		t.Fatalf("start transit: %v", err)
	}
	b, err = f.booking.MarkDelivered(ctx, service.MarkDeliveredRequest{BookingID: id, DriverID: "driver-1"})
	if err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if b.Status != domain.BookingStatusDelivered {
		t.Fatalf("expected Delivered, got %s", b.Status)
	}

	// Delivered is terminal.
	if _, err := f.booking.CancelBooking(ctx, id); !errors.Is(err, service.ErrStateConflict) {
		t.Errorf("expected state conflict cancelling a delivered booking, got %v", err)
	}

	// Notifications fired along the way.
	if f.sender.CountByType(notify.EventBookingCreated) == 0 {
		t.Error("expected booking_created broadcast")
	}
	if !f.sender.SentTo(notify.DriverChannel("driver-1"), notify.EventBookingAssigned) {
		t.Error("expected booking_assigned on the driver channel")
	}
	if !f.sender.SentTo(notify.CustomerChannel("customer-1"), notify.EventBookingConfirmed) {
		t.Error("expected booking_confirmed with OTP on the customer channel")
	}
	if !f.sender.SentTo(notify.CustomerChannel("customer-1"), notify.EventDeliveryCompleted) {
		t.Error("expected delivery_completed on the customer channel")
	}
}

// ──────────────────────────────────────────────
// REJECT AND REASSIGN
// ──────────────────────────────────────────────

func TestBookingLifecycle_RejectThenReassign(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	f.seedDriver("driver-1")
	f.seedDriver("driver-2")
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusRequested)

	if _, err := f.booking.AssignDriver(ctx, service.AssignDriverRequest{BookingID: b.ID, DriverID: "driver-1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// First driver declines.
	rejected, err := f.booking.DriverRespond(ctx, service.DriverRespondRequest{BookingID: b.ID, DriverID: "driver-1", Accept: false})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.BookingStatusRejected {
		t.Fatalf("expected Rejected, got %s", rejected.Status)
	}
	if rejected.DriverID != "" || rejected.VehicleID != "" {
		t.Error("expected assignment to be cleared on rejection")
	}

	// Admin reopens by assigning the second driver.
	reassigned, err := f.booking.AssignDriver(ctx, service.AssignDriverRequest{BookingID: b.ID, DriverID: "driver-2"})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if reassigned.Status != domain.BookingStatusPending {
		t.Fatalf("expected Pending after reopen, got %s", reassigned.Status)
	}
	if reassigned.DriverID != "driver-2" {
		t.Errorf("expected driver-2, got %q", reassigned.DriverID)
	}

	// Second driver accepts and the booking proceeds normally.
	accepted, err := f.booking.DriverRespond(ctx, service.DriverRespondRequest{BookingID: b.ID, DriverID: "driver-2", Accept: true})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.BookingStatusBooked {
		t.Fatalf("expected Booked, got %s", accepted.Status)
	}
}

// ──────────────────────────────────────────────
// GUARDS
// ──────────────────────────────────────────────

func TestBookingLifecycle_WrongDriverCannotRespond(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	f.seedDriver("driver-1")
	f.seedDriver("driver-2")
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusRequested)
	if _, err := f.booking.AssignDriver(ctx, service.AssignDriverRequest{BookingID: b.ID, DriverID: "driver-1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	_, err := f.booking.DriverRespond(ctx, service.DriverRespondRequest{BookingID: b.ID, DriverID: "driver-2", Accept: true})
	if !errors.Is(err, service.ErrDriverNotAssigned) {
		t.Errorf("expected ErrDriverNotAssigned, got %v", err)
	}
}

func TestBookingLifecycle_AssignBusyDriverFails(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	f.seedDriver("driver-1")
	ctx := context.Background()

	// driver-1 already has an active delivery.
	active := f.seedBooking("booking-active", domain.BookingStatusInTransit)
	active.DriverID = "driver-1"

	b := f.seedBooking("booking-new", domain.BookingStatusRequested)
	_, err := f.booking.AssignDriver(ctx, service.AssignDriverRequest{BookingID: b.ID, DriverID: "driver-1"})
	if !errors.Is(err, service.ErrDriverUnavailable) {
		t.Errorf("expected ErrDriverUnavailable, got %v", err)
	}
}

func TestBookingLifecycle_StaleWriteLosesVersionRace(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusRequested)

	// Two actors read the same snapshot.
	first, _ := f.bookings.GetByID(ctx, b.ID)
	second, _ := f.bookings.GetByID(ctx, b.ID)

	// The first write wins and bumps the version.
	first.Status = domain.BookingStatusDenied
	if err := f.bookings.UpdateVersioned(ctx, first); err != nil {
		t.Fatalf("first write: %v", err)
	}

	// The second writer holds a stale version and must lose.
	second.Status = domain.BookingStatusCancelled
	if err := f.bookings.UpdateVersioned(ctx, second); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict for stale write, got %v", err)
	}

	if got := f.bookings.GetBooking(b.ID).Status; got != domain.BookingStatusDenied {
		t.Errorf("stale write must not overwrite: got %s", got)
	}
}

func TestBookingLifecycle_VersionConflictMapsToStateConflict(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusRequested)
	f.bookings.UpdateError = repository.ErrVersionConflict

	_, err := f.booking.CancelBooking(ctx, b.ID)
	if !errors.Is(err, service.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
}

func TestBookingLifecycle_LockedBookingRejectsAssignment(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	f.seedDriver("driver-1")
	f.locks.ForceAcquireFailure = true
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusRequested)
	_, err := f.booking.AssignDriver(ctx, service.AssignDriverRequest{BookingID: b.ID, DriverID: "driver-1"})
	if !errors.Is(err, service.ErrBookingLocked) {
		t.Errorf("expected ErrBookingLocked, got %v", err)
	}
}

func TestBookingLifecycle_GetOverlaysLiveDriverPosition(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	ctx := context.Background()

	// The booking carries the milestone snapshot; the driver has pinged a
	// newer position since.
	b := f.seedBooking("booking-1", domain.BookingStatusInTransit)
	b.DriverID = "driver-1"
	b.DriverLocation = &domain.Location{Lat: 12.97, Lng: 77.59}
	if err := f.locations.UpdateLocation(ctx, "driver-1", 12.95, 77.60); err != nil {
		t.Fatalf("ping: %v", err)
	}

	got, err := f.booking.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DriverLocation == nil || got.DriverLocation.Lat != 12.95 || got.DriverLocation.Lng != 77.60 {
		t.Errorf("expected live position, got %+v", got.DriverLocation)
	}
}

func TestBookingLifecycle_GetKeepsSnapshotWithoutLivePosition(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	ctx := context.Background()

	// A driver who never pinged leaves the persisted snapshot in place.
	quiet := f.seedBooking("booking-1", domain.BookingStatusInTransit)
	quiet.DriverID = "driver-1"
	quiet.DriverLocation = &domain.Location{Lat: 12.97, Lng: 77.59}

	got, err := f.booking.GetBooking(ctx, quiet.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DriverLocation == nil || got.DriverLocation.Lat != 12.97 {
		t.Errorf("expected persisted snapshot, got %+v", got.DriverLocation)
	}

	// A settled booking keeps its final snapshot even when the driver is
	// pinging elsewhere.
	done := f.seedBooking("booking-2", domain.BookingStatusDelivered)
	done.DriverID = "driver-2"
	done.DriverLocation = &domain.Location{Lat: 12.90, Lng: 77.65}
	if err := f.locations.UpdateLocation(ctx, "driver-2", 13.10, 77.40); err != nil {
		t.Fatalf("ping: %v", err)
	}

	got, err = f.booking.GetBooking(ctx, done.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DriverLocation == nil || got.DriverLocation.Lat != 12.90 {
		t.Errorf("expected delivery snapshot, got %+v", got.DriverLocation)
	}
}

func TestBookingLifecycle_DenyOnlyFromRequested(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusBooked)
	if _, err := f.booking.DenyBooking(ctx, b.ID); !errors.Is(err, service.ErrStateConflict) {
		t.Errorf("expected state conflict denying a Booked booking, got %v", err)
	}
}
