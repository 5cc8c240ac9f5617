package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetAll retrieves all bookings, newest first.
	GetAll(ctx context.Context) ([]*domain.Booking, error)

	// GetByCustomerID retrieves all bookings for a customer, newest first.
	GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Booking, error)

	// GetByDriverID retrieves all bookings for a driver, newest first.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Booking, error)

	// FindRecentRequested returns a Requested booking for the same
	// customer and vehicle created at or after the cutoff, or ErrNotFound.
	// This backs the duplicate-submission guard.
	FindRecentRequested(ctx context.Context, customerID, vehicleID string, since time.Time) (*domain.Booking, error)

	// GetBusy retrieves all bookings whose status occupies a driver and
	// vehicle (domain.BusyStatuses).
	GetBusy(ctx context.Context) ([]*domain.Booking, error)

	// UpdateVersioned persists the booking conditioned on the version the
	// caller read; on success the stored and in-memory versions are
	// incremented. A lost race returns ErrVersionConflict.
	UpdateVersioned(ctx context.Context, booking *domain.Booking) error

	// DeleteAll removes every booking. Administrative bulk clear only.
	DeleteAll(ctx context.Context) error
}
