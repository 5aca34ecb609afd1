package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/venue-backend/config"
	"github.com/ikkim/venue-backend/internal/app/controller"
	"github.com/ikkim/venue-backend/internal/middleware"
)

type Router struct {
	venueController      *controller.VenueController
	comparisonController *controller.ComparisonController
	eventController      *controller.EventController
	reloadLimiter        *middleware.IPRateLimiter
	config               *config.Config
}

func NewRouter(
	venueController *controller.VenueController,
	comparisonController *controller.ComparisonController,
	eventController *controller.EventController,
	cfg *config.Config,
) *Router {
	return &Router{
		venueController:      venueController,
		comparisonController: comparisonController,
		eventController:      eventController,
		reloadLimiter: middleware.NewIPRateLimiter(
			cfg.RateLimit.ReloadPerMinute,
			cfg.RateLimit.ReloadBurst,
			10*time.Minute,
		),
		config: cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Venue API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		venues := v1.Group("/venues")
		{
			venues.GET("", r.venueController.ListVenues)
			venues.GET("/facets", r.venueController.GetFacets)
			venues.GET("/status", r.venueController.GetStatus)
			venues.GET("/events", middleware.SessionMiddleware(), r.eventController.StreamDatasetEvents)
			venues.POST("/reload",
				middleware.RateLimitByIP(r.reloadLimiter),
				r.venueController.Reload,
			)
			venues.GET("/:id", r.venueController.GetVenue)
		}

		comparison := v1.Group("/comparison")
		comparison.Use(middleware.SessionMiddleware())
		{
			comparison.GET("/selection", r.comparisonController.GetSelection)
			comparison.DELETE("/selection", r.comparisonController.ClearSelection)
			comparison.POST("/selection/:id/toggle", r.comparisonController.ToggleVenue)
			comparison.GET("/venues", r.comparisonController.ListSelectedVenues)
			comparison.GET("/matrix", r.comparisonController.GetMatrix)
			comparison.GET("/export", r.comparisonController.ExportMatrix)
		}
	}

	return router
}
