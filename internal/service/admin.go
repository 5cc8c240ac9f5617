package service

import (
	"context"
	"log"

	"dispatch/internal/repository"
)

// AdminService performs administrative maintenance operations.
type AdminService struct {
	bookingRepo  repository.BookingRepository
	vehicleRepo  repository.VehicleRepository
	feedbackRepo repository.FeedbackRepository
	userRepo     repository.UserRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	feedbackRepo repository.FeedbackRepository,
	userRepo repository.UserRepository,
) *AdminService {
	return &AdminService{
		bookingRepo:  bookingRepo,
		vehicleRepo:  vehicleRepo,
		feedbackRepo: feedbackRepo,
		userRepo:     userRepo,
	}
}

// ClearData wipes bookings, vehicles and feedback. Accounts survive so
// operators keep their logins. Only the super admin may call this.
func (s *AdminService) ClearData(ctx context.Context, actorID string) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsSuperAdmin {
		return ErrForbidden
	}

	if err := s.feedbackRepo.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.bookingRepo.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.vehicleRepo.DeleteAll(ctx); err != nil {
		return err
	}

	log.Printf("admin data clear performed by %s", actorID)
	return nil
}
