package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appservices "github.com/HabariMedia/newsroom-go/internal/application/services"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/geo"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
)

// GeoHandler exposes the behavioral session tracker.
type GeoHandler struct {
	geo             *appservices.GeoService
	personalization *appservices.PersonalizationService
	logger          *logging.ChanneledLogger
}

// NewGeoHandler creates a geo handler.
func NewGeoHandler(geoSvc *appservices.GeoService, personalization *appservices.PersonalizationService, logger *logging.ChanneledLogger) *GeoHandler {
	return &GeoHandler{geo: geoSvc, personalization: personalization, logger: logger}
}

// Session returns the current behavioral session record.
func (h *GeoHandler) Session(c *gin.Context) {
	snap := h.geo.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geo tracking not started"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

type locationPayload struct {
	County   string `json:"county"`
	Town     string `json:"town"`
	Category string `json:"category"`
}

// UpdateLocation overlays an explicit location onto the session. Empty
// fields are left untouched.
func (h *GeoHandler) UpdateLocation(c *gin.Context) {
	var payload locationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location payload"})
		return
	}

	h.geo.UpdateLocation(c.Request.Context(), geo.Location{
		County:   payload.County,
		Town:     payload.Town,
		Category: payload.Category,
	})
	c.JSON(http.StatusOK, h.geo.Snapshot())
}

type activityPayload struct {
	CategorySlug string `json:"categorySlug"`
}

// Activity records one unit of viewer activity, optionally attributed to a
// category for the visit boost.
func (h *GeoHandler) Activity(c *gin.Context) {
	var payload activityPayload
	// Body is optional; activity without a category still counts.
	_ = c.ShouldBindJSON(&payload)

	h.geo.RecordActivity()
	if payload.CategorySlug != "" {
		h.personalization.RecordVisit(payload.CategorySlug)
	}
	c.JSON(http.StatusOK, h.geo.Snapshot())
}

// Sync forces an immediate flush of a pending record.
func (h *GeoHandler) Sync(c *gin.Context) {
	h.geo.Flush(c.Request.Context())
	c.JSON(http.StatusOK, h.geo.Snapshot())
}
