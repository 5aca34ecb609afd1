package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/venue-backend/internal/app/service"
	apperrors "github.com/ikkim/venue-backend/internal/errors"
	"github.com/ikkim/venue-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ComparisonController struct {
	comparisonService service.ComparisonService
}

func NewComparisonController(comparisonService service.ComparisonService) *ComparisonController {
	return &ComparisonController{comparisonService: comparisonService}
}

func selectionBody(sessionID string, sel service.Selection) gin.H {
	return gin.H{
		"session_id": sessionID,
		"venue_ids":  sel.IDs(),
		"count":      sel.Len(),
		"max":        service.MaxComparisonVenues,
	}
}

// GetSelection 比較リスト取得
// GET /api/v1/comparison/selection
func (ctrl *ComparisonController) GetSelection(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	sel, err := ctrl.comparisonService.GetSelection(c.Request.Context(), sessionID)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to read comparison selection", err, nil)
		apperrors.ParseAndRespond(c, err, "selection")
		return
	}
	c.JSON(http.StatusOK, selectionBody(sessionID, sel))
}

// ToggleVenue 比較リストへの追加/削除
// POST /api/v1/comparison/selection/:id/toggle
func (ctrl *ComparisonController) ToggleVenue(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := middleware.GetSessionID(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "会場IDが正しくありません")
		return
	}

	sel, err := ctrl.comparisonService.Toggle(c.Request.Context(), sessionID, id)
	if err != nil {
		if errors.Is(err, service.ErrSelectionFull) {
			log.Info("Comparison selection full", map[string]interface{}{
				"venue_id": id,
			})
			info := apperrors.ParseError(err, "selection")
			c.JSON(info.Status, gin.H{
				"error":     info.Code,
				"message":   info.Message,
				"selection": selectionBody(sessionID, sel),
			})
			return
		}
		apperrors.ParseAndRespond(c, err, "selection")
		return
	}

	log.Info("Comparison selection toggled", map[string]interface{}{
		"venue_id": id,
		"selected": sel.Contains(id),
		"count":    sel.Len(),
	})
	c.JSON(http.StatusOK, selectionBody(sessionID, sel))
}

// ClearSelection 比較リストのクリア
// DELETE /api/v1/comparison/selection
func (ctrl *ComparisonController) ClearSelection(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	if err := ctrl.comparisonService.Clear(c.Request.Context(), sessionID); err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to clear comparison selection", err, nil)
		apperrors.ParseAndRespond(c, err, "selection")
		return
	}
	c.JSON(http.StatusOK, selectionBody(sessionID, service.Selection{}))
}

// ListSelectedVenues 比較対象の会場のみ表示
// GET /api/v1/comparison/venues
func (ctrl *ComparisonController) ListSelectedVenues(c *gin.Context) {
	venues, err := ctrl.comparisonService.SelectedVenues(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "selection")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"venues": venues,
		"count":  len(venues),
	})
}

// matrixIDs reads ?ids=, falling back to the session selection.
func (ctrl *ComparisonController) matrixIDs(c *gin.Context) ([]uint, bool) {
	if raw := queryList(c, "ids"); len(raw) > 0 {
		ids, err := parseIDList(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "会場IDが正しくありません")
			return nil, false
		}
		return ids, true
	}

	sel, err := ctrl.comparisonService.GetSelection(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		apperrors.ParseAndRespond(c, err, "selection")
		return nil, false
	}
	return sel.IDs(), true
}

// GetMatrix 比較表
// GET /api/v1/comparison/matrix?ids=1,2,3
func (ctrl *ComparisonController) GetMatrix(c *gin.Context) {
	ids, ok := ctrl.matrixIDs(c)
	if !ok {
		return
	}

	matrix, err := ctrl.comparisonService.BuildMatrix(ids)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Failed to build comparison matrix", map[string]interface{}{
			"ids":   ids,
			"error": err.Error(),
		})
		apperrors.ParseAndRespond(c, err, "comparison")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"matrix": matrix,
	})
}

// ExportMatrix 比較表のExcel出力
// GET /api/v1/comparison/export?ids=1,2,3
func (ctrl *ComparisonController) ExportMatrix(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	ids, ok := ctrl.matrixIDs(c)
	if !ok {
		return
	}

	buf, err := ctrl.comparisonService.ExportMatrix(ids)
	if err != nil {
		log.Error("Failed to export comparison matrix", err, map[string]interface{}{
			"ids": ids,
		})
		apperrors.ParseAndRespond(c, err, "export")
		return
	}

	filename := fmt.Sprintf("venue-comparison-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
