package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// NewUpgrader accepts requests without an Origin header, from an allowed
// origin, or from any localhost origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || lo.Contains(allowedOrigins, origin) {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			host := u.Hostname()
			return host == "localhost" || host == "127.0.0.1"
		},
	}
}

// ServeWS upgrades an authenticated request and hands the connection to g.
func ServeWS(g *Gateway, upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, userID uint, sendBuffer int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "userID", userID, "origin", strings.TrimSpace(r.Header.Get("Origin")), "error", err)
		return
	}

	client := NewClient(conn, userID, sendBuffer)
	slog.Info("New WebSocket connection established", "clientID", client.id, "userID", userID)
	g.Connect(client)
}
