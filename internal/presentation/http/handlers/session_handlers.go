// Package handlers exposes the engine's managers over HTTP for the
// frontend.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appservices "github.com/HabariMedia/newsroom-go/internal/application/services"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/performance"
)

// SessionHandler exposes the session state machine.
type SessionHandler struct {
	sessions    *appservices.SessionService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions *appservices.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionHandler {
	return &SessionHandler{
		sessions:    sessions,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Status returns the current session snapshot without touching the
// backend.
func (h *SessionHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Snapshot())
}

// Verify runs a session check against the backend. Concurrent requests
// share one verify.
func (h *SessionHandler) Verify(c *gin.Context) {
	snap, err := h.sessions.CheckSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "snapshot": snap})
		return
	}
	c.JSON(http.StatusOK, snap)
}

type loginPayload struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login forwards credentials to the backend. A rejection is a 200 with
// success=false; only transport failures surface as errors.
func (h *SessionHandler) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier and password are required"})
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), payload.Identifier, payload.Password)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Logout drops the signed-in identity. Local state is cleared even when
// the backend call fails.
func (h *SessionHandler) Logout(c *gin.Context) {
	snap, err := h.sessions.Logout(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Refresh forces a verify cycle, rotating the CSRF token.
func (h *SessionHandler) Refresh(c *gin.Context) {
	snap, err := h.sessions.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "snapshot": snap})
		return
	}
	c.JSON(http.StatusOK, snap)
}
