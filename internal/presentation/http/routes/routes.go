// Package routes builds the engine's HTTP route table.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/HabariMedia/newsroom-go/internal/application/container"
	"github.com/HabariMedia/newsroom-go/internal/presentation/http/handlers"
	"github.com/HabariMedia/newsroom-go/internal/presentation/http/middleware"
	"github.com/HabariMedia/newsroom-go/pkg/config"
)

// Setup registers every route on a fresh gin engine.
func Setup(deps *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(config.CORSAllowedOrigins))

	sessionHandler := handlers.NewSessionHandler(deps.SessionService, deps.Logger, deps.PerfTracker)
	preferenceHandler := handlers.NewPreferenceHandler(deps.PreferenceService, deps.Logger)
	geoHandler := handlers.NewGeoHandler(deps.GeoService, deps.PersonalizationService, deps.Logger)
	feedHandler := handlers.NewFeedHandler(deps.PersonalizationService, deps.Logger, deps.PerfTracker)
	eventsHandler := handlers.NewEventsHandler(deps.Broadcaster, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.SessionService, deps.GeoService, deps.PerfTracker)

	api := router.Group("/api/v1")
	{
		sessionRoutes := api.Group("/session")
		{
			sessionRoutes.GET("/status", sessionHandler.Status)
			sessionRoutes.POST("/verify", sessionHandler.Verify)
			sessionRoutes.POST("/login", sessionHandler.Login)
			sessionRoutes.POST("/logout", sessionHandler.Logout)
			sessionRoutes.POST("/refresh", sessionHandler.Refresh)
		}

		preferenceRoutes := api.Group("/preferences")
		{
			preferenceRoutes.GET("", preferenceHandler.Get)
			preferenceRoutes.POST("/main", preferenceHandler.SetMain)
			preferenceRoutes.POST("/toggle", preferenceHandler.Toggle)
			preferenceRoutes.GET("/disabled/:id", preferenceHandler.Disabled)
		}

		geoRoutes := api.Group("/geo")
		{
			geoRoutes.GET("/session", geoHandler.Session)
			geoRoutes.POST("/location", geoHandler.UpdateLocation)
			geoRoutes.POST("/activity", geoHandler.Activity)
			geoRoutes.POST("/sync", geoHandler.Sync)
		}

		api.GET("/feed", feedHandler.Feed)
		api.GET("/sections", feedHandler.Sections)
		api.GET("/events/stream", eventsHandler.Stream)
		api.GET("/health", healthHandler.Health)
	}

	return router
}
