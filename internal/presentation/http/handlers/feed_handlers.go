package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appservices "github.com/HabariMedia/newsroom-go/internal/application/services"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/performance"
)

// FeedHandler exposes the personalized feed and section ordering.
type FeedHandler struct {
	personalization *appservices.PersonalizationService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewFeedHandler creates a feed handler.
func NewFeedHandler(personalization *appservices.PersonalizationService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *FeedHandler {
	return &FeedHandler{
		personalization: personalization,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// Feed returns the ranked article feed. ?pages= narrows the fetch below
// the configured maximum.
func (h *FeedHandler) Feed(c *gin.Context) {
	pages, _ := strconv.Atoi(c.DefaultQuery("pages", "0"))

	ranked, err := h.personalization.BuildFeed(c.Request.Context(), time.Now(), pages)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles": ranked,
		"count":    len(ranked),
	})
}

// Sections returns the home page sections in personalized order.
func (h *FeedHandler) Sections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sections": h.personalization.Sections()})
}
