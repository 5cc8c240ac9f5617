package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDestinationLocation),
		errors.Is(err, service.ErrInvalidVehicleType),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidOTP),
		errors.Is(err, service.ErrNoOTPIssued):
		return http.StatusBadRequest

	// The code matched but its validity window passed.
	case errors.Is(err, service.ErrOTPExpired):
		return http.StatusGone

	// Conflict errors
	case errors.Is(err, service.ErrStateConflict),
		errors.Is(err, service.ErrBookingLocked),
		errors.Is(err, service.ErrDriverUnavailable),
		errors.Is(err, service.ErrDuplicateBooking),
		errors.Is(err, service.ErrDuplicateFeedback),
		errors.Is(err, service.ErrDuplicateVehicleNumber),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, repository.ErrVersionConflict):
		return http.StatusConflict

	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrDriverNotAssigned),
		errors.Is(err, service.ErrSuperAdminImmutable),
		errors.Is(err, service.ErrAccountNotApproved),
		errors.Is(err, service.ErrAccountDisabled):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
