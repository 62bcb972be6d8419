package handlers

import (
	"channel-chat/internal/api/middleware"
	"channel-chat/internal/websocket"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

type WSHandler struct {
	gateway    *websocket.Gateway
	upgrader   *gorilla.Upgrader
	sendBuffer int
}

func NewWSHandler(gateway *websocket.Gateway, upgrader *gorilla.Upgrader, sendBuffer int) *WSHandler {
	return &WSHandler{gateway: gateway, upgrader: upgrader, sendBuffer: sendBuffer}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Establish a WebSocket connection for channel messaging, presence and typing events
// @Tags websocket
// @Param token query string false "JWT, when the Authorization header cannot be set"
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	websocket.ServeWS(h.gateway, h.upgrader, c.Writer, c.Request, middleware.UserID(c), h.sendBuffer)
}
