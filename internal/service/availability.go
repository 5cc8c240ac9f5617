package service

import (
	"context"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// AvailabilityService computes driver and vehicle availability on demand.
// Availability is always derived from current records at the moment of the
// check and is never cached: a stale answer here double-books a driver.
type AvailabilityService struct {
	bookingRepo repository.BookingRepository
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
) *AvailabilityService {
	return &AvailabilityService{
		bookingRepo: bookingRepo,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
	}
}

// DriverAvailable reports whether a driver can take a new assignment: the
// driver must be approved and active, have at least one active vehicle, and
// hold no booking in a busy status. A driver with a booking anywhere between
// Booked and In Transit is occupied regardless of vehicle count.
func (s *AvailabilityService) DriverAvailable(ctx context.Context, driverID string) (bool, error) {
	if driverID == "" {
		return false, ErrInvalidDriverID
	}

	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return false, err
	}
	if driver.Role != domain.RoleDriver || !driver.Approved || !driver.Active {
		return false, nil
	}

	vehicles, err := s.vehicleRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return false, err
	}
	hasActiveVehicle := false
	for _, v := range vehicles {
		if v.Active {
			hasActiveVehicle = true
			break
		}
	}
	if !hasActiveVehicle {
		return false, nil
	}

	busy, err := s.bookingRepo.GetBusy(ctx)
	if err != nil {
		return false, err
	}
	for _, b := range busy {
		if b.DriverID == driverID {
			return false, nil
		}
	}

	return true, nil
}

// AvailableVehicles returns the active vehicles not tied up by a booking in
// a busy status. Availability is per vehicle, not per driver: a busy driver's
// other vehicles stay listed, as do vehicles with no driver assigned yet.
// This backs the customer browse view; the list is computed per request.
func (s *AvailabilityService) AvailableVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	vehicles, err := s.vehicleRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	busy, err := s.bookingRepo.GetBusy(ctx)
	if err != nil {
		return nil, err
	}
	busyVehicles := make(map[string]struct{}, len(busy))
	for _, b := range busy {
		if b.VehicleID != "" {
			busyVehicles[b.VehicleID] = struct{}{}
		}
	}

	available := make([]*domain.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if _, occupied := busyVehicles[v.ID]; occupied {
			continue
		}
		available = append(available, v)
	}

	return available, nil
}
