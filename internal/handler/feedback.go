package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// FeedbackHandler handles HTTP requests for feedback.
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// FeedbackRequest is the HTTP request body for submitting or editing feedback.
type FeedbackRequest struct {
	BookingID string `json:"bookingId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// FeedbackResponse is the HTTP representation of a feedback record.
type FeedbackResponse struct {
	ID           string     `json:"id"`
	BookingID    string     `json:"bookingId"`
	CustomerID   string     `json:"customerId"`
	CustomerName string     `json:"customerName,omitempty"`
	DriverID     string     `json:"driverId,omitempty"`
	DriverName   string     `json:"driverName,omitempty"`
	Rating       int        `json:"rating"`
	Comment      string     `json:"comment,omitempty"`
	IsEdited     bool       `json:"isEdited"`
	EditedAt     *time.Time `json:"editedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toFeedbackResponse(f *domain.Feedback) FeedbackResponse {
	resp := FeedbackResponse{
		ID:           f.ID,
		BookingID:    f.BookingID,
		CustomerID:   f.CustomerID,
		CustomerName: f.CustomerName,
		DriverID:     f.DriverID,
		DriverName:   f.DriverName,
		Rating:       f.Rating,
		Comment:      f.Comment,
		IsEdited:     f.IsEdited,
		CreatedAt:    f.CreatedAt,
	}
	if !f.EditedAt.IsZero() {
		editedAt := f.EditedAt
		resp.EditedAt = &editedAt
	}
	return resp
}

func toFeedbackResponses(feedbacks []*domain.Feedback) []FeedbackResponse {
	responses := make([]FeedbackResponse, 0, len(feedbacks))
	for _, f := range feedbacks {
		responses = append(responses, toFeedbackResponse(f))
	}
	return responses
}

// Submit handles POST /v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	feedback, err := h.feedbackService.SubmitFeedback(c.Request.Context(), service.SubmitFeedbackRequest{
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toFeedbackResponse(feedback))
}

// Update handles PUT /v1/feedback/:bookingId
func (h *FeedbackHandler) Update(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	feedback, err := h.feedbackService.UpdateFeedback(c.Request.Context(), service.UpdateFeedbackRequest{
		BookingID: c.Param("bookingId"),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toFeedbackResponse(feedback))
}

// GetByBooking handles GET /v1/feedback/booking/:bookingId
func (h *FeedbackHandler) GetByBooking(c *gin.Context) {
	feedback, err := h.feedbackService.GetByBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toFeedbackResponse(feedback))
}

// ListByDriver handles GET /v1/feedback/driver/:driverId
func (h *FeedbackHandler) ListByDriver(c *gin.Context) {
	feedbacks, err := h.feedbackService.ListByDriver(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toFeedbackResponses(feedbacks))
}

// ListByCustomer handles GET /v1/feedback/customer/:customerId
func (h *FeedbackHandler) ListByCustomer(c *gin.Context) {
	feedbacks, err := h.feedbackService.ListByCustomer(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toFeedbackResponses(feedbacks))
}

// DriverStats handles GET /v1/feedback/driver/:driverId/stats
func (h *FeedbackHandler) DriverStats(c *gin.Context) {
	stats, err := h.feedbackService.DriverStats(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, stats)
}
