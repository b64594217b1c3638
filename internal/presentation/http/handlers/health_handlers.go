package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appservices "github.com/HabariMedia/newsroom-go/internal/application/services"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/performance"
)

// HealthHandler reports engine liveness and a few operational stats.
type HealthHandler struct {
	sessions    *appservices.SessionService
	geo         *appservices.GeoService
	perfTracker *performance.Tracker
	started     time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(sessions *appservices.SessionService, geoSvc *appservices.GeoService, perfTracker *performance.Tracker) *HealthHandler {
	return &HealthHandler{
		sessions:    sessions,
		geo:         geoSvc,
		perfTracker: perfTracker,
		started:     time.Now(),
	}
}

// Health returns liveness plus session and tracker status.
func (h *HealthHandler) Health(c *gin.Context) {
	snap := h.sessions.Snapshot()

	body := gin.H{
		"status":        "ok",
		"uptime":        time.Since(h.started).String(),
		"sessionStatus": string(snap.Status),
		"performance":   h.perfTracker.GetOverallStats(),
	}
	if geoSnap := h.geo.Snapshot(); geoSnap != nil {
		body["geoPendingSync"] = geoSnap.PendingSync
	}
	c.JSON(http.StatusOK, body)
}
