package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/repository"
)

// VehicleService manages the vehicle registry.
type VehicleService struct {
	vehicleRepo  repository.VehicleRepository
	userRepo     repository.UserRepository
	availability *AvailabilityService
	notifier     *notify.Router
	now          func() time.Time
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	availability *AvailabilityService,
	notifier *notify.Router,
) *VehicleService {
	return &VehicleService{
		vehicleRepo:  vehicleRepo,
		userRepo:     userRepo,
		availability: availability,
		notifier:     notifier,
		now:          time.Now,
	}
}

// CreateVehicleRequest contains the parameters for registering a vehicle.
type CreateVehicleRequest struct {
	DriverID string // Optional: vehicle may start unassigned
	Name     string
	Number   string
	Type     string
	Capacity int
	Location *domain.Location
}

// CreateVehicle registers a vehicle. The registration number is unique
// across the fleet.
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*domain.Vehicle, error) {
	if req.Name == "" || req.Number == "" {
		return nil, ErrInvalidVehicleID
	}
	if !domain.IsValidVehicleType(req.Type) {
		return nil, ErrInvalidVehicleType
	}

	var driverName string
	if req.DriverID != "" {
		driver, err := s.userRepo.GetByID(ctx, req.DriverID)
		if err != nil {
			return nil, err
		}
		driverName = driver.Name
	}

	now := s.now()
	vehicle := &domain.Vehicle{
		ID:         uuid.New().String(),
		DriverID:   req.DriverID,
		DriverName: driverName,
		Name:       req.Name,
		Number:     req.Number,
		Type:       req.Type,
		Capacity:   req.Capacity,
		Active:     true,
		Location:   req.Location,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateVehicleNumber
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.VehicleAdded(vehicle)
	}

	return vehicle, nil
}

// UpdateVehicleRequest contains a partial vehicle update. Nil fields are
// left untouched.
type UpdateVehicleRequest struct {
	VehicleID string
	Name      *string
	Type      *string
	Capacity  *int
	Active    *bool
	DriverID  *string
	Location  *domain.Location
}

// UpdateVehicle applies a partial update to a vehicle record.
func (s *VehicleService) UpdateVehicle(ctx context.Context, req UpdateVehicleRequest) (*domain.Vehicle, error) {
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		vehicle.Name = *req.Name
	}
	if req.Type != nil {
		if !domain.IsValidVehicleType(*req.Type) {
			return nil, ErrInvalidVehicleType
		}
		vehicle.Type = *req.Type
	}
	if req.Capacity != nil {
		vehicle.Capacity = *req.Capacity
	}
	if req.Active != nil {
		vehicle.Active = *req.Active
	}
	if req.DriverID != nil {
		vehicle.DriverID = *req.DriverID
		vehicle.DriverName = ""
		if *req.DriverID != "" {
			driver, err := s.userRepo.GetByID(ctx, *req.DriverID)
			if err != nil {
				return nil, err
			}
			vehicle.DriverName = driver.Name
		}
	}
	if req.Location != nil {
		vehicle.Location = req.Location
	}
	vehicle.UpdatedAt = s.now()

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.VehicleUpdated(vehicle)
	}

	return vehicle, nil
}

// GetVehicle retrieves one vehicle.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}
	return s.vehicleRepo.GetByID(ctx, vehicleID)
}

// ListVehicles returns the whole fleet.
func (s *VehicleService) ListVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.vehicleRepo.GetAll(ctx)
}

// AvailableVehicles returns active vehicles not held by a busy booking,
// computed at call time.
func (s *VehicleService) AvailableVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.availability.AvailableVehicles(ctx)
}

// ListByDriver returns the vehicles assigned to a driver.
func (s *VehicleService) ListByDriver(ctx context.Context, driverID string) ([]*domain.Vehicle, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.vehicleRepo.GetByDriverID(ctx, driverID)
}

// UpsertByDriver creates or replaces a driver's own vehicle record. Drivers
// maintain a single vehicle through this path; admins use the fleet CRUD.
func (s *VehicleService) UpsertByDriver(ctx context.Context, driverID string, req CreateVehicleRequest) (*domain.Vehicle, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	existing, err := s.vehicleRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		req.DriverID = driverID
		return s.CreateVehicle(ctx, req)
	}

	vehicle := existing[0]
	if req.Name != "" {
		vehicle.Name = req.Name
	}
	if req.Number != "" {
		vehicle.Number = req.Number
	}
	if req.Type != "" {
		if !domain.IsValidVehicleType(req.Type) {
			return nil, ErrInvalidVehicleType
		}
		vehicle.Type = req.Type
	}
	if req.Capacity > 0 {
		vehicle.Capacity = req.Capacity
	}
	if req.Location != nil {
		vehicle.Location = req.Location
	}
	vehicle.UpdatedAt = s.now()

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateVehicleNumber
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.VehicleUpdated(vehicle)
	}

	return vehicle, nil
}

// SetDriverActive toggles every vehicle of a driver on or off duty and
// announces the driver's new availability.
func (s *VehicleService) SetDriverActive(ctx context.Context, driverID string, active bool) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	updated, err := s.vehicleRepo.SetActiveByDriver(ctx, driverID, active)
	if err != nil {
		return err
	}
	if updated == 0 {
		return repository.ErrNotFound
	}

	if s.notifier != nil {
		s.notifier.DriverStatusUpdated(driverID, active)
	}

	return nil
}
