package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/provider-portal-backend/internal/middleware"
	ws "github.com/ikkim/provider-portal-backend/internal/websocket"
)

type WebSocketController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketController accepts browser upgrades only from allowedOrigins.
// Requests without an Origin header (non-browser clients) are accepted.
func NewWebSocketController(hub *ws.Hub, allowedOrigins []string) *WebSocketController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// AdminFeed 관리자 실시간 심사 이벤트 구독
// @Router /admin/ws [get]
func (ctrl *WebSocketController) AdminFeed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	client := ws.NewClient(ctrl.hub, conn, userID)
	if !ctrl.hub.Register(client) {
		log.Warn("Admin feed refused, server is shutting down", map[string]interface{}{
			"user_id": userID,
		})
		conn.Close()
		return
	}
	log.Info("Admin feed connected", map[string]interface{}{
		"user_id": userID,
	})

	go client.WritePump()
	go client.ReadPump()
}
