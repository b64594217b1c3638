package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appservices "github.com/HabariMedia/newsroom-go/internal/application/services"
	"github.com/HabariMedia/newsroom-go/internal/domain/entities/preferences"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
)

// PreferenceHandler exposes the category selection funnel.
type PreferenceHandler struct {
	prefs  *appservices.PreferenceService
	logger *logging.ChanneledLogger
}

// NewPreferenceHandler creates a preference handler.
func NewPreferenceHandler(prefs *appservices.PreferenceService, logger *logging.ChanneledLogger) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs, logger: logger}
}

// Get returns the current selection plus category reference data.
func (h *PreferenceHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":      h.prefs.Snapshot(),
		"categories": h.prefs.Categories(),
		"groups":     preferences.GroupSlugs,
		"primary":    h.prefs.PrimaryCategory(),
	})
}

type mainGroupPayload struct {
	Group string `json:"group" binding:"required"`
}

// SetMain selects the main category group.
func (h *PreferenceHandler) SetMain(c *gin.Context) {
	var payload mainGroupPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group is required"})
		return
	}

	result := h.prefs.SetMainGroup(preferences.GroupKey(payload.Group))
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

type togglePayload struct {
	CategoryID string `json:"categoryId" binding:"required"`
}

// Toggle adds or removes a sub-category.
func (h *PreferenceHandler) Toggle(c *gin.Context) {
	var payload togglePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "categoryId is required"})
		return
	}

	result := h.prefs.ToggleSubCategory(payload.CategoryID)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Disabled reports whether a category can currently be selected and why
// not. The two fields always agree: disabled exactly when reason is set.
func (h *PreferenceHandler) Disabled(c *gin.Context) {
	id := c.Param("id")
	reason := h.prefs.DisabledReason(id)
	c.JSON(http.StatusOK, gin.H{
		"categoryId": id,
		"disabled":   reason != "",
		"reason":     reason,
	})
}
