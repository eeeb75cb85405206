package realtime

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// TokenVerifier проверяет bearer-токен и возвращает id пользователя.
type TokenVerifier func(token string) (string, error)

// UserFromRequest возвращает пользователя, уже определённого middleware.
type UserFromRequest func(r *http.Request) (string, bool)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Доступ проверяется токеном, а не Origin: CLI-клиенты Origin не шлют.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler — точка подключения /api/ws. Аутентификация: пользователь из
// контекста запроса, иначе ?token= (браузерный WebSocket не умеет заголовки).
func Handler(hub *Hub, auth Authorizer, fromRequest UserFromRequest, verify TokenVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := fromRequest(r)
		if !ok {
			if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
				if uid, err := verify(token); err == nil {
					userID, ok = uid, true
				}
			}
		}
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required","reason":"unauthorized"}`))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Warnw("realtime: upgrade failed", "error", err)
			return
		}
		c := newClient(hub, conn, userID)
		if err := hub.register(c); err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"))
			_ = conn.Close()
			return
		}
		hub.logger.Debugw("realtime: client connected", "client", c.id, "user", userID)

		go c.writePump()
		c.readPump(r.Context(), auth)
		hub.logger.Debugw("realtime: client disconnected", "client", c.id, "user", userID)
	}
}
