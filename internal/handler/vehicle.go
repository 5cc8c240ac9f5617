package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// VehicleHandler handles HTTP requests for the vehicle registry.
type VehicleHandler struct {
	vehicleService *service.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleService *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// VehicleRequest is the HTTP request body for creating or upserting a vehicle.
type VehicleRequest struct {
	DriverID string           `json:"driverId,omitempty"`
	Name     string           `json:"name"`
	Number   string           `json:"number"`
	Type     string           `json:"type"`
	Capacity int              `json:"capacity,omitempty"`
	Location *domain.Location `json:"location,omitempty"`
}

// UpdateVehicleRequest is the HTTP request body for a partial vehicle update.
type UpdateVehicleRequest struct {
	Name     *string          `json:"name,omitempty"`
	Type     *string          `json:"type,omitempty"`
	Capacity *int             `json:"capacity,omitempty"`
	Active   *bool            `json:"active,omitempty"`
	DriverID *string          `json:"driverId,omitempty"`
	Location *domain.Location `json:"location,omitempty"`
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID         string           `json:"id"`
	DriverID   string           `json:"driverId,omitempty"`
	DriverName string           `json:"driverName,omitempty"`
	Name       string           `json:"name"`
	Number     string           `json:"number"`
	Type       string           `json:"type"`
	Capacity   int              `json:"capacity"`
	Active     bool             `json:"active"`
	Location   *domain.Location `json:"location,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:         v.ID,
		DriverID:   v.DriverID,
		DriverName: v.DriverName,
		Name:       v.Name,
		Number:     v.Number,
		Type:       v.Type,
		Capacity:   v.Capacity,
		Active:     v.Active,
		Location:   v.Location,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func toVehicleResponses(vehicles []*domain.Vehicle) []VehicleResponse {
	responses := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		responses = append(responses, toVehicleResponse(v))
	}
	return responses
}

// Create handles POST /v1/vehicles
func (h *VehicleHandler) Create(c *gin.Context) {
	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.vehicleService.CreateVehicle(c.Request.Context(), service.CreateVehicleRequest{
		DriverID: req.DriverID,
		Name:     req.Name,
		Number:   req.Number,
		Type:     req.Type,
		Capacity: req.Capacity,
		Location: req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// Update handles PATCH /v1/vehicles/:id
func (h *VehicleHandler) Update(c *gin.Context) {
	var req UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.vehicleService.UpdateVehicle(c.Request.Context(), service.UpdateVehicleRequest{
		VehicleID: c.Param("id"),
		Name:      req.Name,
		Type:      req.Type,
		Capacity:  req.Capacity,
		Active:    req.Active,
		DriverID:  req.DriverID,
		Location:  req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// Get handles GET /v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.vehicleService.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// List handles GET /v1/vehicles
func (h *VehicleHandler) List(c *gin.Context) {
	vehicles, err := h.vehicleService.ListVehicles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponses(vehicles))
}

// ListAvailable handles GET /v1/vehicles/available
func (h *VehicleHandler) ListAvailable(c *gin.Context) {
	vehicles, err := h.vehicleService.AvailableVehicles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponses(vehicles))
}

// ListByDriver handles GET /v1/vehicles/by-driver/:driverId
func (h *VehicleHandler) ListByDriver(c *gin.Context) {
	vehicles, err := h.vehicleService.ListByDriver(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponses(vehicles))
}

// UpsertByDriver handles PUT /v1/vehicles/by-driver/:driverId
func (h *VehicleHandler) UpsertByDriver(c *gin.Context) {
	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.vehicleService.UpsertByDriver(c.Request.Context(), c.Param("driverId"), service.CreateVehicleRequest{
		Name:     req.Name,
		Number:   req.Number,
		Type:     req.Type,
		Capacity: req.Capacity,
		Location: req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// SetActiveByDriver handles PATCH /v1/vehicles/by-driver/:driverId/active
func (h *VehicleHandler) SetActiveByDriver(c *gin.Context) {
	active, err := strconv.ParseBool(c.Query("active"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "active query parameter must be true or false"})
		return
	}

	if err := h.vehicleService.SetDriverActive(c.Request.Context(), c.Param("driverId"), active); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"driverId": c.Param("driverId"), "active": active})
}
