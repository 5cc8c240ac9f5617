package repository

import (
	"context"

	"dispatch/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create adds a new vehicle. A number collision returns ErrDuplicate.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetAll retrieves all vehicles, newest first.
	GetAll(ctx context.Context) ([]*domain.Vehicle, error)

	// GetByDriverID retrieves all vehicles assigned to a driver.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Vehicle, error)

	// GetActive retrieves all vehicles with the active flag set.
	GetActive(ctx context.Context) ([]*domain.Vehicle, error)

	// Update updates an existing vehicle.
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// SetActiveByDriver toggles the active flag on all of a driver's
	// vehicles and returns how many were updated.
	SetActiveByDriver(ctx context.Context, driverID string, active bool) (int, error)

	// DeleteAll removes every vehicle. Administrative bulk clear only.
	DeleteAll(ctx context.Context) error
}
