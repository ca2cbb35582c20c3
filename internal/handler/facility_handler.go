package handler

import (
	"strings"

	"github.com/fleetgrid/service-zoning/internal/application"
	"github.com/fleetgrid/service-zoning/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FacilityHandler handles HTTP requests for facility operations.
type FacilityHandler struct {
	service *application.FacilityService
}

// NewFacilityHandler creates a new FacilityHandler.
func NewFacilityHandler(service *application.FacilityService) *FacilityHandler {
	return &FacilityHandler{service: service}
}

// RegisterRoutes registers all facility routes on the given router group.
func (h *FacilityHandler) RegisterRoutes(r *gin.RouterGroup) {
	facilities := r.Group("/api/v1/facilities")
	{
		facilities.POST("", h.RegisterFacility)
		facilities.GET("", h.ListFacilities)
		facilities.DELETE("/:id", h.DeactivateFacility)
	}
}

// RegisterFacility handles POST /api/v1/facilities.
func (h *FacilityHandler) RegisterFacility(c *gin.Context) {
	var req application.RegisterFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RegisterFacility(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListFacilities handles GET /api/v1/facilities with an optional
// ?near=lat,lng proximity filter.
func (h *FacilityHandler) ListFacilities(c *gin.Context) {
	page, limit := parsePagination(c)

	var near *application.PointInput
	if nearStr := c.Query("near"); nearStr != "" {
		parts := strings.SplitN(nearStr, ",", 2)
		if len(parts) != 2 {
			response.BadRequest(c, "near must be lat,lng")
			return
		}
		lat, lng, ok := parseLatLng(parts[0], parts[1])
		if !ok {
			response.BadRequest(c, "near must be lat,lng")
			return
		}
		near = &application.PointInput{Lat: lat, Lng: lng}
	}

	result, err := h.service.ListFacilities(c.Request.Context(), page, limit, near)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// DeactivateFacility handles DELETE /api/v1/facilities/:id.
func (h *FacilityHandler) DeactivateFacility(c *gin.Context) {
	facilityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid facility ID")
		return
	}

	if err := h.service.DeactivateFacility(c.Request.Context(), facilityID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deactivated": true})
}
