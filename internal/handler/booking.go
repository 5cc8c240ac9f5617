package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	CustomerID          string           `json:"customerId"`
	CustomerName        string           `json:"customerName"`
	CustomerAddress     string           `json:"customerAddress,omitempty"`
	VehicleID           string           `json:"vehicleId,omitempty"`
	PickupLocation      *domain.Location `json:"pickupLocation"`
	DestinationLocation *domain.Location `json:"destinationLocation"`
	Distance            float64          `json:"distance"`
	Price               float64          `json:"price,omitempty"`
}

// BookingResponse is the HTTP representation of a booking. The pickup OTP is
// not embedded here; the operations that issue a code return it alongside
// the booking, and it also reaches the customer over their notification
// channel.
type BookingResponse struct {
	ID                  string           `json:"id"`
	CustomerID          string           `json:"customerId"`
	CustomerName        string           `json:"customerName,omitempty"`
	CustomerAddress     string           `json:"customerAddress,omitempty"`
	DriverID            string           `json:"driverId,omitempty"`
	DriverName          string           `json:"driverName,omitempty"`
	VehicleID           string           `json:"vehicleId,omitempty"`
	VehicleName         string           `json:"vehicleName,omitempty"`
	VehicleType         string           `json:"vehicleType,omitempty"`
	Status              string           `json:"status"`
	PickupLocation      *domain.Location `json:"pickupLocation,omitempty"`
	DestinationLocation *domain.Location `json:"destinationLocation,omitempty"`
	DriverLocation      *domain.Location `json:"driverLocation,omitempty"`
	Distance            float64          `json:"distance"`
	Price               float64          `json:"price"`
	Version             int64            `json:"version"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:                  b.ID,
		CustomerID:          b.CustomerID,
		CustomerName:        b.CustomerName,
		CustomerAddress:     b.CustomerAddress,
		DriverID:            b.DriverID,
		DriverName:          b.DriverName,
		VehicleID:           b.VehicleID,
		VehicleName:         b.VehicleName,
		VehicleType:         b.VehicleType,
		Status:              string(b.Status),
		PickupLocation:      b.PickupLocation,
		DestinationLocation: b.DestinationLocation,
		DriverLocation:      b.DriverLocation,
		Distance:            b.Distance,
		Price:               b.Price,
		Version:             b.Version,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

func toBookingResponses(bookings []*domain.Booking) []BookingResponse {
	responses := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		responses = append(responses, toBookingResponse(b))
	}
	return responses
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		CustomerID:          req.CustomerID,
		CustomerName:        req.CustomerName,
		CustomerAddress:     req.CustomerAddress,
		VehicleID:           req.VehicleID,
		PickupLocation:      req.PickupLocation,
		DestinationLocation: req.DestinationLocation,
		Distance:            req.Distance,
		Price:               req.Price,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// A retried request returns the booking it already created.
	code := http.StatusCreated
	if result.Duplicate {
		code = http.StatusOK
	}
	respondJSON(c, code, toBookingResponse(result.Booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// ListBookings handles GET /v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListBookings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// ListByCustomer handles GET /v1/bookings/customer/:id
func (h *BookingHandler) ListByCustomer(c *gin.Context) {
	bookings, err := h.bookingService.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// ListByDriver handles GET /v1/bookings/driver/:id
func (h *BookingHandler) ListByDriver(c *gin.Context) {
	bookings, err := h.bookingService.ListByDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// AssignDriverRequest is the HTTP request body for dispatching a driver.
type AssignDriverRequest struct {
	DriverID string `json:"driverId"`
}

// AssignDriver handles POST /v1/bookings/:id/assign
func (h *BookingHandler) AssignDriver(c *gin.Context) {
	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.AssignDriver(c.Request.Context(), service.AssignDriverRequest{
		BookingID: c.Param("id"),
		DriverID:  req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// RespondRequest is the HTTP request body for a driver's answer.
type RespondRequest struct {
	DriverID string `json:"driverId"`
	Accept   bool   `json:"accept"`
}

// Respond handles POST /v1/bookings/:id/respond
func (h *BookingHandler) Respond(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.DriverRespond(c.Request.Context(), service.DriverRespondRequest{
		BookingID: c.Param("id"),
		DriverID:  req.DriverID,
		Accept:    req.Accept,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// DriverProgressRequest is the HTTP request body for driver milestones that
// carry a position report.
type DriverProgressRequest struct {
	DriverID string           `json:"driverId"`
	Location *domain.Location `json:"location,omitempty"`
}

// OTPIssueResponse carries a freshly generated pickup code together with the
// booking it belongs to.
type OTPIssueResponse struct {
	OTP     string          `json:"otp"`
	Booking BookingResponse `json:"booking"`
}

// ReachedPickup handles POST /v1/bookings/:id/reached-pickup
func (h *BookingHandler) ReachedPickup(c *gin.Context) {
	var req DriverProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.ReachedPickup(c.Request.Context(), service.ReachedPickupRequest{
		BookingID: c.Param("id"),
		DriverID:  req.DriverID,
		Location:  req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, OTPIssueResponse{
		OTP:     booking.PickupOTP,
		Booking: toBookingResponse(booking),
	})
}

// ResendOTP handles POST /v1/bookings/:id/resend-otp
func (h *BookingHandler) ResendOTP(c *gin.Context) {
	booking, err := h.bookingService.ResendOTP(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, OTPIssueResponse{
		OTP:     booking.PickupOTP,
		Booking: toBookingResponse(booking),
	})
}

// VerifyOTPRequest is the HTTP request body for pickup confirmation.
type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

// VerifyOTPErrorResponse distinguishes a stale code from a wrong one so the
// client can offer a resend.
type VerifyOTPErrorResponse struct {
	Error   string `json:"error"`
	Expired bool   `json:"expired"`
}

// VerifyOTP handles POST /v1/bookings/:id/verify-otp
func (h *BookingHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.VerifyOTP(c.Request.Context(), service.VerifyOTPRequest{
		BookingID: c.Param("id"),
		OTP:       req.OTP,
	})
	if err != nil {
		c.JSON(mapErrorToHTTPStatus(err), VerifyOTPErrorResponse{
			Error:   err.Error(),
			Expired: errors.Is(err, service.ErrOTPExpired),
		})
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// StartTransit handles POST /v1/bookings/:id/in-transit
func (h *BookingHandler) StartTransit(c *gin.Context) {
	var req DriverProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.StartTransit(c.Request.Context(), c.Param("id"), req.DriverID, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// MarkDelivered handles POST /v1/bookings/:id/delivered
func (h *BookingHandler) MarkDelivered(c *gin.Context) {
	var req DriverProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.MarkDelivered(c.Request.Context(), service.MarkDeliveredRequest{
		BookingID: c.Param("id"),
		DriverID:  req.DriverID,
		Location:  req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Deny handles POST /v1/bookings/:id/deny
func (h *BookingHandler) Deny(c *gin.Context) {
	booking, err := h.bookingService.DenyBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Cancel handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	booking, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}
