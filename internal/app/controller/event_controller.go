package controller

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/venue-backend/internal/middleware"
	ws "github.com/ikkim/venue-backend/internal/websocket"
)

type EventController struct {
	hub      *ws.Hub
	upgrader *gorillaws.Upgrader
}

func NewEventController(hub *ws.Hub, allowedOrigins []string) *EventController {
	return &EventController{
		hub:      hub,
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// StreamDatasetEvents 読み込み状態の変化をWebSocketで配信
// GET /api/v1/venues/events
// 接続直後に最新の状態を1件送る。{"type":"status"} を送ると再送する
func (ctrl *EventController) StreamDatasetEvents(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, conn, middleware.GetSessionID(c))
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"session_id": client.SessionID,
	})
}
