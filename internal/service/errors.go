package service

import "errors"

var (
	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDestinationLocation is returned when destination coordinates are invalid.
	ErrInvalidDestinationLocation = errors.New("invalid destination location")

	// ErrInvalidVehicleType is returned when the vehicle type is not recognized.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")

	// ErrInvalidRating is returned when a rating is outside 1 to 5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrStateConflict is returned when a transition is not allowed from the
	// booking's current state, or when a concurrent update won the race.
	ErrStateConflict = errors.New("booking state conflict")

	// ErrBookingLocked is returned when another dispatch operation holds the
	// booking lock.
	ErrBookingLocked = errors.New("booking is being processed")

	// ErrDriverUnavailable is returned when the driver fails the availability
	// check at assignment time.
	ErrDriverUnavailable = errors.New("driver is not available")

	// ErrDriverNotAssigned is returned when a driver acts on a booking that is
	// not addressed to them.
	ErrDriverNotAssigned = errors.New("booking is not assigned to this driver")

	// ErrDuplicateBooking is returned when an identical booking request was
	// created moments ago.
	ErrDuplicateBooking = errors.New("duplicate booking request")

	// ErrDuplicateFeedback is returned when the booking already has feedback.
	ErrDuplicateFeedback = errors.New("feedback already submitted for this booking")

	// ErrDuplicateVehicleNumber is returned when the vehicle number is taken.
	ErrDuplicateVehicleNumber = errors.New("vehicle number already registered")

	// ErrInvalidOTP is returned when the submitted OTP does not match.
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrOTPExpired is returned when the OTP matched but its validity window
	// has passed.
	ErrOTPExpired = errors.New("otp expired")

	// ErrNoOTPIssued is returned when verification is attempted before any OTP
	// was generated.
	ErrNoOTPIssued = errors.New("no otp issued for this booking")

	// ErrForbidden is returned when the caller lacks permission for the action.
	ErrForbidden = errors.New("operation not permitted")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountNotApproved is returned when an unapproved driver logs in.
	ErrAccountNotApproved = errors.New("account pending approval")

	// ErrAccountDisabled is returned when a deactivated account logs in.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrSuperAdminImmutable is returned on attempts to delete or demote the
	// super admin.
	ErrSuperAdminImmutable = errors.New("super admin cannot be modified")
)
