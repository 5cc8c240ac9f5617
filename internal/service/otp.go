package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"dispatch/internal/domain"
)

// OTPService issues and verifies pickup confirmation codes. The clock is
// injected so expiry boundaries can be tested deterministically.
type OTPService struct {
	now func() time.Time
}

// NewOTPService creates a new OTPService using the wall clock.
func NewOTPService() *OTPService {
	return &OTPService{now: time.Now}
}

// NewOTPServiceWithClock creates an OTPService with a custom clock.
func NewOTPServiceWithClock(now func() time.Time) *OTPService {
	return &OTPService{now: now}
}

// Generate returns a fresh 6-digit code and its issuance time. Codes may
// have leading zeros; they are handled as strings end to end.
func (s *OTPService) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate otp: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), s.now(), nil
}

// Verify checks a submitted code against the booking's stored OTP. Both
// sides are whitespace-trimmed before comparison. A wrong code is reported
// before expiry is considered; a matching code older than the validity
// window fails with ErrOTPExpired. Exactly 30 minutes is still valid.
func (s *OTPService) Verify(booking *domain.Booking, submitted string) error {
	if booking.PickupOTP == "" {
		return ErrNoOTPIssued
	}
	if strings.TrimSpace(submitted) != strings.TrimSpace(booking.PickupOTP) {
		return ErrInvalidOTP
	}
	if booking.OTPExpired(s.now()) {
		return ErrOTPExpired
	}

	return nil
}
