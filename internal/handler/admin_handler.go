package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fleetgrid/service-zoning/internal/application"
	"github.com/fleetgrid/service-zoning/internal/common/response"
)

// AdminZoneHandler handles admin HTTP requests for zone plan oversight.
type AdminZoneHandler struct {
	service *application.ZoneService
}

// NewAdminZoneHandler creates a new AdminZoneHandler.
func NewAdminZoneHandler(service *application.ZoneService) *AdminZoneHandler {
	return &AdminZoneHandler{service: service}
}

// RegisterRoutes registers admin zone routes.
func (h *AdminZoneHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/zone-plans/stats", h.ZonePlanStats)
	}
}

// ZonePlanStats handles GET /api/v1/admin/zone-plans/stats.
func (h *AdminZoneHandler) ZonePlanStats(c *gin.Context) {
	stats, err := h.service.GetZoneStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
