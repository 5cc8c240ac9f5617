package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// duplicateWindow is how long an identical booking request is treated as a
// retry of the previous one rather than a new order.
const duplicateWindow = 5 * time.Minute

// assignLockTTL bounds how long an assignment holds the per-booking lock.
const assignLockTTL = 10 * time.Second

// BookingService coordinates the booking lifecycle. Every status change is
// validated against the transition graph and persisted with a version check;
// notifications fire only after the write succeeds.
type BookingService struct {
	bookingRepo  repository.BookingRepository
	vehicleRepo  repository.VehicleRepository
	userRepo     repository.UserRepository
	availability *AvailabilityService
	otp          *OTPService
	notifier     *notify.Router
	locks        redis.LockStoreInterface
	locations    redis.LocationStoreInterface
	perKmRate    float64
	now          func() time.Time
}

// NewBookingService creates a new BookingService. locks and locations may be
// nil when running without redis (tests).
func NewBookingService(
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	availability *AvailabilityService,
	otp *OTPService,
	notifier *notify.Router,
	locks redis.LockStoreInterface,
	locations redis.LocationStoreInterface,
	perKmRate float64,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		vehicleRepo:  vehicleRepo,
		userRepo:     userRepo,
		availability: availability,
		otp:          otp,
		notifier:     notifier,
		locks:        locks,
		locations:    locations,
		perKmRate:    perKmRate,
		now:          time.Now,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	CustomerID          string
	CustomerName        string
	CustomerAddress     string
	VehicleID           string // Optional: customer may pre-select a vehicle
	PickupLocation      *domain.Location
	DestinationLocation *domain.Location
	Distance            float64
	Price               float64 // Optional: derived from distance when zero
}

// CreateBookingResponse contains the result of creating a booking.
type CreateBookingResponse struct {
	Booking   *domain.Booking
	Duplicate bool // true when an existing recent booking was returned
}

// CreateBooking creates a booking in Requested state. A request matching a
// Requested booking from the same customer for the same vehicle within the
// duplicate window returns that booking instead of creating another.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResponse, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if !isValidLocation(req.PickupLocation) {
		return nil, ErrInvalidPickupLocation
	}
	if !isValidLocation(req.DestinationLocation) {
		return nil, ErrInvalidDestinationLocation
	}

	existing, err := s.bookingRepo.FindRecentRequested(ctx, req.CustomerID, req.VehicleID, s.now().Add(-duplicateWindow))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return &CreateBookingResponse{Booking: existing, Duplicate: true}, nil
	}

	var vehicleName, vehicleType string
	if req.VehicleID != "" {
		vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
		if err != nil {
			return nil, err
		}
		vehicleName = vehicle.Name
		vehicleType = vehicle.Type
	}

	price := req.Price
	if price <= 0 {
		price = req.Distance * s.perKmRate
	}

	now := s.now()
	booking := &domain.Booking{
		ID:                  uuid.New().String(),
		CustomerID:          req.CustomerID,
		CustomerName:        req.CustomerName,
		CustomerAddress:     req.CustomerAddress,
		VehicleID:           req.VehicleID,
		VehicleName:         vehicleName,
		VehicleType:         vehicleType,
		Status:              domain.BookingStatusRequested,
		PickupLocation:      req.PickupLocation,
		DestinationLocation: req.DestinationLocation,
		Distance:            req.Distance,
		Price:               price,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.BookingCreated(booking)
	}

	return &CreateBookingResponse{Booking: booking}, nil
}

// AssignDriverRequest contains the parameters for dispatching a driver.
type AssignDriverRequest struct {
	BookingID string
	DriverID  string
}

// AssignDriver moves a Requested or Rejected booking to Pending with the
// driver and their active vehicle attached. The driver must pass the
// availability check at this moment; a short per-booking lock serializes
// concurrent assignment attempts before the version check settles the rest.
func (s *BookingService) AssignDriver(ctx context.Context, req AssignDriverRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	if s.locks != nil {
		ok, err := s.locks.AcquireBookingLock(ctx, req.BookingID, assignLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBookingLocked
		}
		defer func() { _ = s.locks.ReleaseBookingLock(ctx, req.BookingID) }()
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusPending) {
		return nil, ErrStateConflict
	}

	available, err := s.availability.DriverAvailable(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrDriverUnavailable
	}

	driver, err := s.userRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	vehicles, err := s.vehicleRepo.GetByDriverID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	var vehicle *domain.Vehicle
	for _, v := range vehicles {
		if v.Active {
			vehicle = v
			break
		}
	}
	if vehicle == nil {
		return nil, ErrDriverUnavailable
	}

	booking.DriverID = driver.ID
	booking.DriverName = driver.Name
	booking.VehicleID = vehicle.ID
	booking.VehicleName = vehicle.Name
	booking.VehicleType = vehicle.Type
	booking.Status = domain.BookingStatusPending

	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.BookingAssigned(booking)
	}

	return booking, nil
}

// DriverRespondRequest contains a driver's answer to a pending assignment.
type DriverRespondRequest struct {
	BookingID string
	DriverID  string
	Accept    bool
}

// DriverRespond records a driver's acceptance or rejection of a Pending
// booking. Acceptance issues the pickup OTP and moves to Booked; rejection
// clears the assignment and moves to Rejected, from which an admin may
// reassign.
func (s *BookingService) DriverRespond(ctx context.Context, req DriverRespondRequest) (*domain.Booking, error) {
	booking, err := s.addressedBooking(ctx, req.BookingID, req.DriverID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, ErrStateConflict
	}

	if !req.Accept {
		booking.DriverID = ""
		booking.DriverName = ""
		booking.VehicleID = ""
		booking.VehicleName = ""
		booking.VehicleType = ""
		booking.Status = domain.BookingStatusRejected

		if err := s.update(ctx, booking); err != nil {
			return nil, err
		}
		if s.notifier != nil {
			s.notifier.BookingRejected(booking)
		}
		return booking, nil
	}

	otp, issuedAt, err := s.otp.Generate()
	if err != nil {
		return nil, err
	}
	booking.PickupOTP = otp
	booking.OTPGeneratedAt = issuedAt
	booking.Status = domain.BookingStatusBooked

	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.BookingConfirmed(booking, otp)
	}

	return booking, nil
}

// ReachedPickupRequest contains the driver's arrival report.
type ReachedPickupRequest struct {
	BookingID string
	DriverID  string
	Location  *domain.Location
}

// ReachedPickup marks the driver's arrival at the pickup point. A fresh OTP
// is always issued here so the customer holds a code with a full validity
// window when the handover happens.
func (s *BookingService) ReachedPickup(ctx context.Context, req ReachedPickupRequest) (*domain.Booking, error) {
	booking, err := s.addressedBooking(ctx, req.BookingID, req.DriverID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusReachedPickup) {
		return nil, ErrStateConflict
	}

	otp, issuedAt, err := s.otp.Generate()
	if err != nil {
		return nil, err
	}
	booking.PickupOTP = otp
	booking.OTPGeneratedAt = issuedAt
	booking.Status = domain.BookingStatusReachedPickup
	if req.Location != nil {
		booking.DriverLocation = req.Location
	}

	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PickupOTPGenerated(booking, otp)
		s.notifier.PickupReached(booking)
	}

	return booking, nil
}

// otpResendStatuses are the statuses during which an OTP may be reissued.
var otpResendStatuses = map[domain.BookingStatus]bool{
	domain.BookingStatusBooked:        true,
	domain.BookingStatusReachedPickup: true,
	domain.BookingStatusWaitingPickup: true,
}

// ResendOTP reissues the pickup code without changing status. The previous
// code stops working immediately.
func (s *BookingService) ResendOTP(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !otpResendStatuses[booking.Status] {
		return nil, ErrStateConflict
	}

	otp, issuedAt, err := s.otp.Generate()
	if err != nil {
		return nil, err
	}
	booking.PickupOTP = otp
	booking.OTPGeneratedAt = issuedAt

	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PickupOTPGenerated(booking, otp)
	}

	return booking, nil
}

// VerifyOTPRequest contains a pickup confirmation attempt.
type VerifyOTPRequest struct {
	BookingID string
	OTP       string
}

// VerifyOTP confirms the handover. A matching, unexpired code moves the
// booking to Order Picked Up and clears the OTP. A matching but stale code
// parks the booking in Waiting for Pickup Confirmation so the dashboard
// shows the stall until the code is reissued; a wrong code changes nothing.
func (s *BookingService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusReachedPickup && booking.Status != domain.BookingStatusWaitingPickup {
		return nil, ErrStateConflict
	}

	if err := s.otp.Verify(booking, req.OTP); err != nil {
		if errors.Is(err, ErrOTPExpired) && booking.Status == domain.BookingStatusReachedPickup {
			booking.Status = domain.BookingStatusWaitingPickup
			if updateErr := s.update(ctx, booking); updateErr != nil {
				return nil, updateErr
			}
			if s.notifier != nil {
				s.notifier.BookingStatusUpdated(booking)
			}
		}
		return nil, err
	}

	booking.PickupOTP = ""
	booking.OTPGeneratedAt = time.Time{}
	booking.Status = domain.BookingStatusPickedUp

	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PickupConfirmed(booking)
	}

	return booking, nil
}

// StartTransit moves a picked-up booking to In Transit once the driver is
// moving toward the destination.
func (s *BookingService) StartTransit(ctx context.Context, bookingID, driverID string, location *domain.Location) (*domain.Booking, error) {
	booking, err := s.addressedBooking(ctx, bookingID, driverID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusInTransit) {
		return nil, ErrStateConflict
	}

	booking.Status = domain.BookingStatusInTransit
	if location != nil {
		booking.DriverLocation = location
	}

	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.BookingStatusUpdated(booking)
	}

	return booking, nil
}

// MarkDeliveredRequest contains the driver's delivery report.
type MarkDeliveredRequest struct {
	BookingID string
	DriverID  string
	Location  *domain.Location
}

// MarkDelivered closes out the booking from Order Picked Up or In Transit.
// Delivered is terminal; the driver becomes available again on the next
// availability read.
func (s *BookingService) MarkDelivered(ctx context.Context, req MarkDeliveredRequest) (*domain.Booking, error) {
	booking, err := s.addressedBooking(ctx, req.BookingID, req.DriverID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusDelivered) {
		return nil, ErrStateConflict
	}

	booking.Status = domain.BookingStatusDelivered
	if req.Location != nil {
		booking.DriverLocation = req.Location
	}

	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.DeliveryCompleted(booking)
	}

	return booking, nil
}

// DenyBooking is the admin's refusal of a Requested booking.
func (s *BookingService) DenyBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusDenied) {
		return nil, ErrStateConflict
	}

	booking.Status = domain.BookingStatusDenied
	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.BookingDenied(booking)
	}

	return booking, nil
}

// CancelBooking cancels any booking not already in a terminal state.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(domain.BookingStatusCancelled) {
		return nil, ErrStateConflict
	}

	booking.Status = domain.BookingStatusCancelled
	if err := s.update(ctx, booking); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.BookingStatusUpdated(booking)
	}

	return booking, nil
}

// GetBooking retrieves one booking. While the booking is busy, the returned
// driver location is the live position from the location store when one is
// known; the persisted milestone snapshot is the fallback.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.overlayDriverLocation(ctx, booking)
	return booking, nil
}

// overlayDriverLocation replaces the persisted driver-location snapshot with
// the last position the driver pinged over the hub. A read failure or an
// unknown driver leaves the snapshot untouched.
func (s *BookingService) overlayDriverLocation(ctx context.Context, booking *domain.Booking) {
	if s.locations == nil || booking.DriverID == "" || !booking.Status.IsBusy() {
		return
	}
	pos, err := s.locations.GetLocation(ctx, booking.DriverID)
	if err != nil || pos == nil {
		return
	}
	booking.DriverLocation = &domain.Location{Lat: pos.Lat, Lng: pos.Lng}
}

// ListBookings returns recent bookings for the admin dashboard.
func (s *BookingService) ListBookings(ctx context.Context) ([]*domain.Booking, error) {
	return s.bookingRepo.GetAll(ctx)
}

// ListByCustomer returns a customer's bookings, newest first.
func (s *BookingService) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	return s.bookingRepo.GetByCustomerID(ctx, customerID)
}

// ListByDriver returns a driver's bookings, newest first.
func (s *BookingService) ListByDriver(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.bookingRepo.GetByDriverID(ctx, driverID)
}

// addressedBooking loads a booking and verifies the acting driver is the one
// assigned to it.
func (s *BookingService) addressedBooking(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}

	return booking, nil
}

// update persists a booking conditionally on its version. A losing writer
// surfaces as a state conflict rather than silently overwriting.
func (s *BookingService) update(ctx context.Context, booking *domain.Booking) error {
	if err := s.bookingRepo.UpdateVersioned(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrStateConflict
		}
		return err
	}
	return nil
}

func isValidLocation(loc *domain.Location) bool {
	if loc == nil {
		return false
	}
	return loc.Lat >= -90 && loc.Lat <= 90 && loc.Lng >= -180 && loc.Lng <= 180
}
