package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/handler"
)

func newBookingAPIFixture() (*gin.Engine, *dispatchFixture) {
	gin.SetMode(gin.TestMode)

	f := newDispatchFixture(nil)
	h := handler.NewBookingHandler(f.booking)

	router := gin.New()
	router.POST("/v1/bookings/:id/reached-pickup", h.ReachedPickup)
	router.POST("/v1/bookings/:id/resend-otp", h.ResendOTP)
	return router, f
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBookingAPI_ReachedPickupReturnsOTP(t *testing.T) {
	t.Parallel()

	router, f := newBookingAPIFixture()
	b := f.seedBooking("booking-1", domain.BookingStatusBooked)
	b.DriverID = "driver-1"

	rec := postJSON(router, "/v1/bookings/booking-1/reached-pickup",
		`{"driverId":"driver-1","location":{"lat":12.969,"lng":77.592}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handler.OTPIssueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.OTP) != 6 {
		t.Fatalf("expected a 6-digit code in the response, got %q", resp.OTP)
	}
	if stored := f.bookings.GetBooking("booking-1").PickupOTP; resp.OTP != stored {
		t.Errorf("response code %q does not match stored code %q", resp.OTP, stored)
	}
	if resp.Booking.Status != string(domain.BookingStatusReachedPickup) {
		t.Errorf("expected Reached Pickup, got %q", resp.Booking.Status)
	}
}

func TestBookingAPI_ResendOTPReturnsFreshCode(t *testing.T) {
	t.Parallel()

	router, f := newBookingAPIFixture()
	b := f.seedBooking("booking-1", domain.BookingStatusBooked)
	b.DriverID = "driver-1"
	b.PickupOTP = "111111"

	rec := postJSON(router, "/v1/bookings/booking-1/resend-otp", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handler.OTPIssueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.OTP) != 6 {
		t.Fatalf("expected a 6-digit code in the response, got %q", resp.OTP)
	}
	if resp.OTP == "111111" {
		t.Error("expected the resend to overwrite the previous code")
	}
	if resp.Booking.Status != string(domain.BookingStatusBooked) {
		t.Errorf("resend must not change status, got %q", resp.Booking.Status)
	}
}
