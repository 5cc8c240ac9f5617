package postgres

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// FeedbackRepository is a PostgreSQL implementation of repository.FeedbackRepository.
type FeedbackRepository struct {
	q Querier
}

// NewFeedbackRepository creates a new PostgreSQL feedback repository.
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{q: db}
}

const feedbackColumns = `
	id, booking_id, customer_id, customer_name, driver_id, driver_name,
	rating, comment, is_edited, edited_at, created_at, updated_at
`

// Create adds new feedback. A second feedback for the same booking returns
// repository.ErrDuplicate via the unique index on booking_id.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	query := `
		INSERT INTO feedback (` + feedbackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		feedback.ID,
		feedback.BookingID,
		feedback.CustomerID,
		nullString(feedback.CustomerName),
		feedback.DriverID,
		nullString(feedback.DriverName),
		feedback.Rating,
		feedback.Comment,
		feedback.IsEdited,
		nullTime(feedback.EditedAt),
		feedback.CreatedAt,
		feedback.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByBookingID retrieves the feedback for a booking.
func (r *FeedbackRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE booking_id = $1`
	feedback, err := scanFeedback(r.q.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return feedback, err
}

// GetByDriverID retrieves all feedback for a driver, newest first.
func (r *FeedbackRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.queryFeedback(ctx, query, driverID)
}

// GetByCustomerID retrieves all feedback left by a customer, newest first.
func (r *FeedbackRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.queryFeedback(ctx, query, customerID)
}

// Update updates existing feedback.
func (r *FeedbackRepository) Update(ctx context.Context, feedback *domain.Feedback) error {
	query := `
		UPDATE feedback SET
			rating = $1, comment = $2, is_edited = $3, edited_at = $4, updated_at = now()
		WHERE booking_id = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		feedback.Rating,
		feedback.Comment,
		feedback.IsEdited,
		nullTime(feedback.EditedAt),
		feedback.BookingID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DriverStats aggregates rating average and count for a driver.
// The average is rounded to one decimal; a driver with no feedback gets zeros.
func (r *FeedbackRepository) DriverStats(ctx context.Context, driverID string) (*domain.DriverStats, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM feedback WHERE driver_id = $1`

	var avg float64
	var count int
	if err := r.q.QueryRowContext(ctx, query, driverID).Scan(&avg, &count); err != nil {
		return nil, err
	}

	return &domain.DriverStats{
		AverageRating: math.Round(avg*10) / 10,
		TotalRatings:  count,
	}, nil
}

// DeleteAll removes every feedback record.
func (r *FeedbackRepository) DeleteAll(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM feedback`)
	return err
}

func (r *FeedbackRepository) queryFeedback(ctx context.Context, query string, args ...any) ([]*domain.Feedback, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feedbacks []*domain.Feedback
	for rows.Next() {
		feedback, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, feedback)
	}
	return feedbacks, rows.Err()
}

func scanFeedback(s rowScanner) (*domain.Feedback, error) {
	var feedback domain.Feedback
	var customerName, driverName sql.NullString
	var editedAt sql.NullTime

	err := s.Scan(
		&feedback.ID,
		&feedback.BookingID,
		&feedback.CustomerID,
		&customerName,
		&feedback.DriverID,
		&driverName,
		&feedback.Rating,
		&feedback.Comment,
		&feedback.IsEdited,
		&editedAt,
		&feedback.CreatedAt,
		&feedback.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	feedback.CustomerName = customerName.String
	feedback.DriverName = driverName.String
	if editedAt.Valid {
		feedback.EditedAt = editedAt.Time
	}
	return &feedback, nil
}
