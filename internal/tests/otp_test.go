package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestOTP_GenerateProducesSixDigits(t *testing.T) {
	t.Parallel()

	otp := service.NewOTPService()
	for i := 0; i < 50; i++ {
		code, _, err := otp.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}

func TestOTP_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	otp := service.NewOTPService()
	code, issuedAt, err := otp.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	b := &domain.Booking{PickupOTP: code, OTPGeneratedAt: issuedAt}
	if err := otp.Verify(b, code); err != nil {
		t.Errorf("expected fresh code to verify, got %v", err)
	}
}

func TestOTP_VerifyTrimsWhitespace(t *testing.T) {
	t.Parallel()

	otp := service.NewOTPService()
	b := &domain.Booking{PickupOTP: "042719", OTPGeneratedAt: time.Now()}

	if err := otp.Verify(b, "  042719\n"); err != nil {
		t.Errorf("expected padded submission to verify, got %v", err)
	}
}

func TestOTP_VerifyWrongCode(t *testing.T) {
	t.Parallel()

	otp := service.NewOTPService()
	b := &domain.Booking{PickupOTP: "042719", OTPGeneratedAt: time.Now()}

	if err := otp.Verify(b, "042718"); !errors.Is(err, service.ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP, got %v", err)
	}
}

func TestOTP_VerifyWithoutIssuance(t *testing.T) {
	t.Parallel()

	otp := service.NewOTPService()
	if err := otp.Verify(&domain.Booking{}, "123456"); !errors.Is(err, service.ErrNoOTPIssued) {
		t.Errorf("expected ErrNoOTPIssued, got %v", err)
	}
}

func TestOTP_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	otp := service.NewOTPServiceWithClock(func() time.Time { return now })

	testCases := []struct {
		name string
		age  time.Duration
		want error
	}{
		{"exactly thirty minutes is still valid", domain.OTPValidity, nil},
		{"one second over is expired", domain.OTPValidity + time.Second, service.ErrOTPExpired},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := &domain.Booking{PickupOTP: "042719", OTPGeneratedAt: now.Add(-tc.age)}
			err := otp.Verify(b, "042719")
			if tc.want == nil && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOTP_WrongCodeReportedBeforeExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	otp := service.NewOTPServiceWithClock(func() time.Time { return now })
	b := &domain.Booking{PickupOTP: "042719", OTPGeneratedAt: now.Add(-time.Hour)}

	if err := otp.Verify(b, "999999"); !errors.Is(err, service.ErrInvalidOTP) {
		t.Errorf("a wrong stale code must report ErrInvalidOTP, got %v", err)
	}
}

// ──────────────────────────────────────────────
// OTP THROUGH THE BOOKING SERVICE
// ──────────────────────────────────────────────

func TestBookingOTP_ResendReplacesCode(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusBooked)
	b.DriverID = "driver-1"
	b.PickupOTP = "111111"
	b.OTPGeneratedAt = time.Now()

	updated, err := f.booking.ResendOTP(ctx, b.ID)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if updated.Status != domain.BookingStatusBooked {
		t.Errorf("resend must not change status, got %s", updated.Status)
	}
	if updated.PickupOTP == "111111" {
		t.Error("expected a fresh code after resend")
	}
	if len(updated.PickupOTP) != 6 {
		t.Errorf("expected 6-digit replacement, got %q", updated.PickupOTP)
	}
}

func TestBookingOTP_ResendRejectedInWrongStatus(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	ctx := context.Background()

	for _, status := range []domain.BookingStatus{
		domain.BookingStatusRequested,
		domain.BookingStatusPending,
		domain.BookingStatusInTransit,
		domain.BookingStatusDelivered,
	} {
		b := f.seedBooking("booking-"+string(status), status)
		if _, err := f.booking.ResendOTP(ctx, b.ID); !errors.Is(err, service.ErrStateConflict) {
			t.Errorf("status %s: expected state conflict, got %v", status, err)
		}
	}
}

func TestBookingOTP_ExpiredCodeParksBookingAndResendRecovers(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newDispatchFixture(func() time.Time { return current })
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusReachedPickup)
	b.DriverID = "driver-1"
	b.PickupOTP = "042719"
	b.OTPGeneratedAt = current.Add(-domain.OTPValidity - time.Minute)

	// Matching but stale code: verification fails and the booking stalls.
	_, err := f.booking.VerifyOTP(ctx, service.VerifyOTPRequest{BookingID: b.ID, OTP: "042719"})
	if !errors.Is(err, service.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	if got := f.bookings.GetBooking(b.ID).Status; got != domain.BookingStatusWaitingPickup {
		t.Fatalf("expected Waiting for Pickup Confirmation, got %s", got)
	}

	// A resend issues a fresh code which then verifies.
	reissued, err := f.booking.ResendOTP(ctx, b.ID)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	confirmed, err := f.booking.VerifyOTP(ctx, service.VerifyOTPRequest{BookingID: b.ID, OTP: reissued.PickupOTP})
	if err != nil {
		t.Fatalf("verify after resend: %v", err)
	}
	if confirmed.Status != domain.BookingStatusPickedUp {
		t.Errorf("expected Order Picked Up, got %s", confirmed.Status)
	}
}

func TestBookingOTP_VerifyRejectedOutsidePickupStates(t *testing.T) {
	t.Parallel()

	f := newDispatchFixture(nil)
	ctx := context.Background()

	b := f.seedBooking("booking-1", domain.BookingStatusBooked)
	b.PickupOTP = "042719"
	b.OTPGeneratedAt = time.Now()

	if _, err := f.booking.VerifyOTP(ctx, service.VerifyOTPRequest{BookingID: b.ID, OTP: "042719"}); !errors.Is(err, service.ErrStateConflict) {
		t.Errorf("expected state conflict verifying before arrival, got %v", err)
	}
}
