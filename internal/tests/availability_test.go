package tests

import (
	"context"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func newAvailabilityFixture() (*service.AvailabilityService, *MockBookingRepository, *MockVehicleRepository, *MockUserRepository) {
	bookings := NewMockBookingRepository()
	vehicles := NewMockVehicleRepository()
	users := NewMockUserRepository()
	return service.NewAvailabilityService(bookings, vehicles, users), bookings, vehicles, users
}

func seedAvailableDriver(vehicles *MockVehicleRepository, users *MockUserRepository, driverID string) {
	users.AddUser(&domain.User{
		ID: driverID, Role: domain.RoleDriver, Approved: true, Active: true,
	})
	vehicles.AddVehicle(&domain.Vehicle{
		ID: "vehicle-" + driverID, DriverID: driverID,
		Name: "Tata Ace", Number: "KA-05-" + driverID, Type: "Tata Ace", Active: true,
	})
}

func TestAvailability_FreeDriverIsAvailable(t *testing.T) {
	t.Parallel()

	svc, _, vehicles, users := newAvailabilityFixture()
	seedAvailableDriver(vehicles, users, "driver-1")

	ok, err := svc.DriverAvailable(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected driver to be available")
	}
}

func TestAvailability_BusyStatusesOccupyDriver(t *testing.T) {
	t.Parallel()

	for _, status := range domain.BusyStatuses {
		status := status
		t.Run(string(status), func(t *testing.T) {
			t.Parallel()

			svc, bookings, vehicles, users := newAvailabilityFixture()
			seedAvailableDriver(vehicles, users, "driver-1")
			bookings.AddBooking(&domain.Booking{
				ID: "booking-1", CustomerID: "customer-1",
				DriverID: "driver-1", Status: status,
			})

			ok, err := svc.DriverAvailable(context.Background(), "driver-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok {
				t.Errorf("driver with a booking in %s must be unavailable", status)
			}
		})
	}
}

func TestAvailability_SettledStatusesFreeDriver(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.BookingStatus{
		domain.BookingStatusRequested,
		domain.BookingStatusDelivered,
		domain.BookingStatusCancelled,
		domain.BookingStatusRejected,
	} {
		status := status
		t.Run(string(status), func(t *testing.T) {
			t.Parallel()

			svc, bookings, vehicles, users := newAvailabilityFixture()
			seedAvailableDriver(vehicles, users, "driver-1")
			bookings.AddBooking(&domain.Booking{
				ID: "booking-1", CustomerID: "customer-1",
				DriverID: "driver-1", Status: status,
			})

			ok, err := svc.DriverAvailable(context.Background(), "driver-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ok {
				t.Errorf("a booking in %s must not occupy the driver", status)
			}
		})
	}
}

func TestAvailability_RequiresActiveVehicle(t *testing.T) {
	t.Parallel()

	svc, _, vehicles, users := newAvailabilityFixture()
	users.AddUser(&domain.User{
		ID: "driver-1", Role: domain.RoleDriver, Approved: true, Active: true,
	})
	vehicles.AddVehicle(&domain.Vehicle{
		ID: "vehicle-1", DriverID: "driver-1",
		Name: "Tempo", Number: "KA-09-0001", Type: "Tempo", Active: false,
	})

	ok, err := svc.DriverAvailable(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("driver with only inactive vehicles must be unavailable")
	}
}

func TestAvailability_UnapprovedOrInactiveDriver(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		user domain.User
	}{
		{"unapproved", domain.User{ID: "driver-1", Role: domain.RoleDriver, Approved: false, Active: true}},
		{"off duty", domain.User{ID: "driver-1", Role: domain.RoleDriver, Approved: true, Active: false}},
		{"not a driver", domain.User{ID: "driver-1", Role: domain.RoleCustomer, Approved: true, Active: true}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, _, vehicles, users := newAvailabilityFixture()
			user := tc.user
			users.AddUser(&user)
			vehicles.AddVehicle(&domain.Vehicle{
				ID: "vehicle-1", DriverID: "driver-1",
				Name: "Auto", Number: "KA-02-0001", Type: "Auto", Active: true,
			})

			ok, err := svc.DriverAvailable(context.Background(), "driver-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok {
				t.Error("expected driver to be unavailable")
			}
		})
	}
}

func TestAvailability_ComputedFreshOnEveryRead(t *testing.T) {
	t.Parallel()

	svc, bookings, vehicles, users := newAvailabilityFixture()
	seedAvailableDriver(vehicles, users, "driver-1")
	ctx := context.Background()

	ok, _ := svc.DriverAvailable(ctx, "driver-1")
	if !ok {
		t.Fatal("expected driver available before assignment")
	}

	// The driver picks up work; the next read must see it immediately.
	bookings.AddBooking(&domain.Booking{
		ID: "booking-1", DriverID: "driver-1", Status: domain.BookingStatusBooked,
	})
	ok, _ = svc.DriverAvailable(ctx, "driver-1")
	if ok {
		t.Fatal("expected driver occupied after assignment")
	}

	// Delivery completes; availability returns without any invalidation step.
	bookings.GetBooking("booking-1").Status = domain.BookingStatusDelivered
	ok, _ = svc.DriverAvailable(ctx, "driver-1")
	if !ok {
		t.Fatal("expected driver available after delivery")
	}
}

func TestAvailability_AvailableVehiclesExcludeBusyVehicles(t *testing.T) {
	t.Parallel()

	svc, bookings, vehicles, users := newAvailabilityFixture()
	seedAvailableDriver(vehicles, users, "driver-1") // vehicle-driver-1
	vehicles.AddVehicle(&domain.Vehicle{
		ID: "vehicle-spare", DriverID: "driver-1",
		Name: "Tempo", Number: "KA-09-0002", Type: "Tempo", Active: true,
	})
	vehicles.AddVehicle(&domain.Vehicle{
		ID: "vehicle-unassigned", Name: "Lorry", Number: "KA-10-0001", Type: "Lorry", Active: true,
	})
	vehicles.AddVehicle(&domain.Vehicle{
		ID: "vehicle-parked", Name: "Auto", Number: "KA-02-0009", Type: "Auto", Active: false,
	})
	bookings.AddBooking(&domain.Booking{
		ID: "booking-1", DriverID: "driver-1", VehicleID: "vehicle-driver-1",
		Status: domain.BookingStatusInTransit,
	})

	available, err := svc.AvailableVehicles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := make(map[string]bool, len(available))
	for _, v := range available {
		got[v.ID] = true
	}
	if !got["vehicle-spare"] {
		t.Error("a busy driver's idle vehicle must stay available")
	}
	if !got["vehicle-unassigned"] {
		t.Error("an active vehicle without a driver must stay available")
	}
	if got["vehicle-driver-1"] {
		t.Error("the vehicle on an in-transit booking must not be listed")
	}
	if got["vehicle-parked"] {
		t.Error("inactive vehicles must not be listed")
	}
	if len(available) != 2 {
		t.Errorf("expected 2 available vehicles, got %d", len(available))
	}
}
