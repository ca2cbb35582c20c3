package handler

import (
	"strconv"

	"github.com/fleetgrid/service-zoning/internal/application"
	"github.com/fleetgrid/service-zoning/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ZoneHandler handles HTTP requests for zone previews and zone plans.
type ZoneHandler struct {
	service *application.ZoneService
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(service *application.ZoneService) *ZoneHandler {
	return &ZoneHandler{service: service}
}

// RegisterRoutes registers all zone routes on the given router group.
func (h *ZoneHandler) RegisterRoutes(r *gin.RouterGroup) {
	zones := r.Group("/api/v1/zones")
	{
		zones.POST("/preview", h.PreviewZones)
	}

	plans := r.Group("/api/v1/zone-plans")
	{
		plans.POST("", h.CreateZonePlan)
		plans.GET("", h.ListZonePlans)
		plans.GET("/:id", h.GetZonePlan)
		plans.POST("/:id/activate", h.ActivateZonePlan)
		plans.POST("/:id/archive", h.ArchiveZonePlan)
		plans.GET("/:id/locate", h.LocateZone)
	}
}

// PreviewZones handles POST /api/v1/zones/preview.
func (h *ZoneHandler) PreviewZones(c *gin.Context) {
	var req application.PreviewZonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.PreviewZones(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateZonePlan handles POST /api/v1/zone-plans.
func (h *ZoneHandler) CreateZonePlan(c *gin.Context) {
	var req application.CreateZonePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateZonePlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListZonePlans handles GET /api/v1/zone-plans.
func (h *ZoneHandler) ListZonePlans(c *gin.Context) {
	page, limit := parsePagination(c)
	status := c.Query("status")

	result, err := h.service.ListZonePlans(c.Request.Context(), status, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetZonePlan handles GET /api/v1/zone-plans/:id.
func (h *ZoneHandler) GetZonePlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid zone plan ID")
		return
	}

	result, err := h.service.GetZonePlan(c.Request.Context(), planID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ActivateZonePlan handles POST /api/v1/zone-plans/:id/activate.
func (h *ZoneHandler) ActivateZonePlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid zone plan ID")
		return
	}

	result, err := h.service.ActivateZonePlan(c.Request.Context(), planID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ArchiveZonePlan handles POST /api/v1/zone-plans/:id/archive.
func (h *ZoneHandler) ArchiveZonePlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid zone plan ID")
		return
	}

	result, err := h.service.ArchiveZonePlan(c.Request.Context(), planID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// LocateZone handles GET /api/v1/zone-plans/:id/locate?lat=&lng=.
func (h *ZoneHandler) LocateZone(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid zone plan ID")
		return
	}

	lat, lng, ok := parseLatLng(c.Query("lat"), c.Query("lng"))
	if !ok {
		response.BadRequest(c, "lat and lng query parameters are required")
		return
	}

	result, err := h.service.LocateZone(c.Request.Context(), planID, lat, lng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// parseLatLng parses a coordinate pair from query strings.
func parseLatLng(latStr, lngStr string) (float64, float64, bool) {
	if latStr == "" || lngStr == "" {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}
