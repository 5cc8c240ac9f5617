package repository

import (
	"context"

	"dispatch/internal/domain"
)

// FeedbackRepository defines the persistence operations for feedback.
type FeedbackRepository interface {
	// Create adds new feedback. A second feedback for the same booking
	// returns ErrDuplicate.
	Create(ctx context.Context, feedback *domain.Feedback) error

	// GetByBookingID retrieves the feedback for a booking.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Feedback, error)

	// GetByDriverID retrieves all feedback for a driver, newest first.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Feedback, error)

	// GetByCustomerID retrieves all feedback left by a customer, newest first.
	GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Feedback, error)

	// Update updates existing feedback.
	Update(ctx context.Context, feedback *domain.Feedback) error

	// DriverStats aggregates rating average and count for a driver.
	DriverStats(ctx context.Context, driverID string) (*domain.DriverStats, error)

	// DeleteAll removes every feedback record.
	DeleteAll(ctx context.Context) error
}
