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

// FeedbackService manages customer ratings. Each booking carries at most one
// feedback record; later edits update it in place.
type FeedbackService struct {
	feedbackRepo repository.FeedbackRepository
	bookingRepo  repository.BookingRepository
	notifier     *notify.Router
	now          func() time.Time
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(
	feedbackRepo repository.FeedbackRepository,
	bookingRepo repository.BookingRepository,
	notifier *notify.Router,
) *FeedbackService {
	return &FeedbackService{
		feedbackRepo: feedbackRepo,
		bookingRepo:  bookingRepo,
		notifier:     notifier,
		now:          time.Now,
	}
}

// SubmitFeedbackRequest contains a new rating for a booking.
type SubmitFeedbackRequest struct {
	BookingID string
	Rating    int
	Comment   string
}

// SubmitFeedback records the first rating for a booking. Names and the
// driver reference are copied from the booking so the record stands alone.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, req SubmitFeedbackRequest) (*domain.Feedback, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.feedbackRepo.GetByBookingID(ctx, req.BookingID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	} else if existing != nil {
		return nil, ErrDuplicateFeedback
	}

	now := s.now()
	feedback := &domain.Feedback{
		ID:           uuid.New().String(),
		BookingID:    booking.ID,
		CustomerID:   booking.CustomerID,
		CustomerName: booking.CustomerName,
		DriverID:     booking.DriverID,
		DriverName:   booking.DriverName,
		Rating:       req.Rating,
		Comment:      req.Comment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.feedbackRepo.Create(ctx, feedback); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateFeedback
		}
		return nil, err
	}

	s.notifyDriver(ctx, feedback, false)
	return feedback, nil
}

// UpdateFeedbackRequest contains an edit to an existing rating.
type UpdateFeedbackRequest struct {
	BookingID string
	Rating    int
	Comment   string
}

// UpdateFeedback revises the booking's rating and marks it edited.
func (s *FeedbackService) UpdateFeedback(ctx context.Context, req UpdateFeedbackRequest) (*domain.Feedback, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	feedback, err := s.feedbackRepo.GetByBookingID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	feedback.Rating = req.Rating
	feedback.Comment = req.Comment
	feedback.IsEdited = true
	feedback.EditedAt = now
	feedback.UpdatedAt = now

	if err := s.feedbackRepo.Update(ctx, feedback); err != nil {
		return nil, err
	}

	s.notifyDriver(ctx, feedback, true)
	return feedback, nil
}

// GetByBooking returns the feedback attached to a booking, if any.
func (s *FeedbackService) GetByBooking(ctx context.Context, bookingID string) (*domain.Feedback, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	return s.feedbackRepo.GetByBookingID(ctx, bookingID)
}

// ListByDriver returns all feedback left for a driver.
func (s *FeedbackService) ListByDriver(ctx context.Context, driverID string) ([]*domain.Feedback, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.feedbackRepo.GetByDriverID(ctx, driverID)
}

// ListByCustomer returns all feedback a customer has left.
func (s *FeedbackService) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Feedback, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	return s.feedbackRepo.GetByCustomerID(ctx, customerID)
}

// DriverStats returns a driver's rating average (one decimal) and count.
func (s *FeedbackService) DriverStats(ctx context.Context, driverID string) (*domain.DriverStats, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.feedbackRepo.DriverStats(ctx, driverID)
}

// notifyDriver pushes the feedback and refreshed stats to the driver channel.
// Stat lookup failures only suppress the notification, never the write.
func (s *FeedbackService) notifyDriver(ctx context.Context, feedback *domain.Feedback, edited bool) {
	if s.notifier == nil || feedback.DriverID == "" {
		return
	}

	stats, err := s.feedbackRepo.DriverStats(ctx, feedback.DriverID)
	if err != nil {
		return
	}
	if edited {
		s.notifier.FeedbackUpdated(feedback, stats)
		return
	}
	s.notifier.NewFeedback(feedback, stats)
}
