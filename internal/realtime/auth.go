package realtime

import (
	"net/http"

	"odatanode/pkg"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and streams progress of nodeID to it.
// Browsers cannot set headers on an upgrade, the JWT travels in the token query param.
// An empty jwtSecret disables the check.
func ServeWS(hub *Hub, jwtSecret string, nodeID uint, w http.ResponseWriter, r *http.Request) {
	if jwtSecret != "" {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		if _, err := pkg.ValidateToken(token, jwtSecret); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn().Err(err).Uint("nodeId", nodeID).Msg("ws upgrade failed")
		return
	}

	client := NewClient(hub, conn, nodeID)
	if !hub.add(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
