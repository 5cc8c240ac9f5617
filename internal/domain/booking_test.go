package domain

import (
	"testing"
	"time"
)

func TestBookingStatus_EveryStatusIsValid(t *testing.T) {
	t.Parallel()

	statuses := []BookingStatus{
		BookingStatusRequested, BookingStatusPending, BookingStatusBooked,
		BookingStatusRejected, BookingStatusDenied, BookingStatusReachedPickup,
		BookingStatusWaitingPickup, BookingStatusPickedUp, BookingStatusInTransit,
		BookingStatusDelivered, BookingStatusCompleted, BookingStatusCancelled,
	}

	for _, s := range statuses {
		if !s.IsValid() {
			t.Errorf("expected %q to be a valid status", s)
		}
	}

	if BookingStatus("Teleported").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestBookingStatus_TerminalStatesPermitNoTransition(t *testing.T) {
	t.Parallel()

	terminals := []BookingStatus{
		BookingStatusDenied, BookingStatusDelivered,
		BookingStatusCompleted, BookingStatusCancelled,
	}
	all := []BookingStatus{
		BookingStatusRequested, BookingStatusPending, BookingStatusBooked,
		BookingStatusRejected, BookingStatusDenied, BookingStatusReachedPickup,
		BookingStatusWaitingPickup, BookingStatusPickedUp, BookingStatusInTransit,
		BookingStatusDelivered, BookingStatusCompleted, BookingStatusCancelled,
	}

	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Errorf("expected %q to be terminal", from)
		}
		for _, to := range all {
			if from.CanTransitionTo(to) {
				t.Errorf("terminal state %q must not transition to %q", from, to)
			}
		}
	}
}

func TestBookingStatus_HappyPathChain(t *testing.T) {
	t.Parallel()

	chain := []BookingStatus{
		BookingStatusRequested, BookingStatusPending, BookingStatusBooked,
		BookingStatusReachedPickup, BookingStatusPickedUp,
		BookingStatusInTransit, BookingStatusDelivered,
	}

	for i := 0; i < len(chain)-1; i++ {
		if !chain[i].CanTransitionTo(chain[i+1]) {
			t.Errorf("expected %q -> %q to be allowed", chain[i], chain[i+1])
		}
	}
}

func TestBookingStatus_RejectedReopensToPending(t *testing.T) {
	t.Parallel()

	if BookingStatusRejected.IsTerminal() {
		t.Error("Rejected must not be terminal")
	}
	if !BookingStatusRejected.CanTransitionTo(BookingStatusPending) {
		t.Error("expected Rejected -> Pending reopen to be allowed")
	}
	if BookingStatusRejected.CanTransitionTo(BookingStatusBooked) {
		t.Error("Rejected must not skip straight to Booked")
	}
}

func TestBookingStatus_NoBackwardOrSkippingTransitions(t *testing.T) {
	t.Parallel()

	forbidden := []struct{ from, to BookingStatus }{
		{BookingStatusRequested, BookingStatusBooked},
		{BookingStatusPending, BookingStatusReachedPickup},
		{BookingStatusBooked, BookingStatusPending},
		{BookingStatusPickedUp, BookingStatusBooked},
		{BookingStatusInTransit, BookingStatusPickedUp},
		{BookingStatusRequested, BookingStatusDelivered},
	}

	for _, tc := range forbidden {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("transition %q -> %q must not be allowed", tc.from, tc.to)
		}
	}
}

func TestOTPExpired_StrictBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		age     time.Duration
		expired bool
	}{
		{"fresh", time.Minute, false},
		{"just under", OTPValidity - time.Second, false},
		{"exactly at the limit", OTPValidity, false},
		{"one second past", OTPValidity + time.Second, true},
		{"long past", 2 * time.Hour, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := &Booking{PickupOTP: "123456", OTPGeneratedAt: now.Add(-tc.age)}
			if got := b.OTPExpired(now); got != tc.expired {
				t.Errorf("age %v: expected expired=%v, got %v", tc.age, tc.expired, got)
			}
		})
	}
}

func TestOTPExpired_NoIssuanceNeverExpires(t *testing.T) {
	t.Parallel()

	b := &Booking{}
	if b.OTPExpired(time.Now()) {
		t.Error("booking with no OTP issuance must not report expiry")
	}
}
