package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/middleware"
	"dispatch/internal/service"
)

// AdminHandler handles administrative maintenance endpoints.
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ClearData handles DELETE /v1/admin/data
func (h *AdminHandler) ClearData(c *gin.Context) {
	if err := h.adminService.ClearData(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"cleared": true})
}
