package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/venue-backend/internal/app/service"
	apperrors "github.com/ikkim/venue-backend/internal/errors"
	"github.com/ikkim/venue-backend/internal/middleware"
)

type VenueController struct {
	coordinator service.QueryCoordinator
	engine      *service.FilterEngine
}

func NewVenueController(coordinator service.QueryCoordinator, engine *service.FilterEngine) *VenueController {
	return &VenueController{coordinator: coordinator, engine: engine}
}

// ListVenues 会場一覧・検索・絞り込み
// GET /api/v1/venues
// Query params:
//   - q: フリーテキスト
//   - prefecture, capacity, feature, price: 絞り込み (複数可)
func (ctrl *VenueController) ListVenues(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	text := c.Query("q")
	facets := service.FacetState{
		Prefectures:    queryList(c, "prefecture"),
		CapacityRanges: queryList(c, "capacity"),
		Features:       queryList(c, "feature"),
		PriceRanges:    queryList(c, "price"),
	}

	if err := ctrl.engine.Validate(facets); err != nil {
		log.Warn("Invalid venue facets", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "venue list")
		return
	}

	venues, err := ctrl.coordinator.Query(text, facets)
	if err != nil {
		log.Warn("Venue query unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "venue list")
		return
	}

	log.Info("Venues listed", map[string]interface{}{
		"count":    len(venues),
		"filtered": !facets.IsEmpty(),
	})

	c.JSON(http.StatusOK, gin.H{
		"venues": venues,
		"count":  len(venues),
		"facets": facets,
	})
}

// GetFacets 絞り込み条件ごとの件数
// GET /api/v1/venues/facets
func (ctrl *VenueController) GetFacets(c *gin.Context) {
	summary, err := ctrl.coordinator.FacetCounts()
	if err != nil {
		apperrors.ParseAndRespond(c, err, "venue facets")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"facets": summary,
	})
}

// GetStatus 読み込み状態
// GET /api/v1/venues/status
func (ctrl *VenueController) GetStatus(c *gin.Context) {
	snap := ctrl.coordinator.Snapshot()

	body := gin.H{
		"state":      snap.State,
		"generation": snap.Generation,
		"updated_at": snap.UpdatedAt,
	}
	if snap.State == service.LoadStateLoaded {
		body["metadata"] = snap.Metadata
		body["count"] = len(snap.Venues)
	}
	if snap.State == service.LoadStateError {
		body["message"] = snap.Message()
		body["cause"] = snap.Cause()
		body["retryable"] = true
	}
	c.JSON(http.StatusOK, body)
}

// Reload 会場データの再読み込み
// POST /api/v1/venues/reload
func (ctrl *VenueController) Reload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.coordinator.Reload(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrLoadSuperseded) {
			log.Info("Reload superseded by a newer request", nil)
		} else {
			log.Error("Venue reload failed", err, nil)
		}
		apperrors.ParseAndRespond(c, err, "venue reload")
		return
	}

	snap := ctrl.coordinator.Snapshot()
	log.Info("Venues reloaded", map[string]interface{}{
		"count":      len(snap.Venues),
		"generation": snap.Generation,
	})

	c.JSON(http.StatusOK, gin.H{
		"state":    snap.State,
		"count":    len(snap.Venues),
		"metadata": snap.Metadata,
	})
}

// GetVenue 会場詳細
// GET /api/v1/venues/:id
func (ctrl *VenueController) GetVenue(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := parseID(idStr)
	if err != nil {
		log.Warn("Invalid venue ID", map[string]interface{}{
			"venue_id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "会場IDが正しくありません")
		return
	}

	venue, err := ctrl.coordinator.GetVenue(id)
	if err != nil {
		if errors.Is(err, service.ErrVenueNotFound) {
			log.Warn("Venue not found", map[string]interface{}{
				"venue_id": id,
			})
		}
		apperrors.ParseAndRespond(c, err, "venue")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"venue": venue,
	})
}
