package websocket

import (
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"github.com/ken-william/dreamshare/internal/utils/jwt"
	"github.com/ken-william/dreamshare/internal/utils/response"
	ws "github.com/ken-william/dreamshare/internal/websocket"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth is enforced via the token query parameter, not the origin.
		return true
	},
}

// Handle upgrades the connection and registers the user with the hub. The
// token travels in the query string because browser WebSocket clients cannot
// set headers.
func Handle(hub *ws.Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			response.Error(w, http.StatusUnauthorized, "token is required")
			return
		}

		userID, err := jwt.ExtractUserIDFromToken(token, jwtSecret)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := ws.NewClient(conn, userID, hub)
		hub.RegisterClient(client)
		client.Start()
	}
}
