package server

import (
	"net/http"

	"dzika/core/auth"
	"dzika/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ActivityFeedHandler 实时活动推送
// Browsers cannot set headers on WebSocket requests, so the token travels in
// the query string instead of the Authorization header.
func (h *APIHandler) ActivityFeedHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Token required")
		return
	}
	if _, err := auth.ParseToken(token, h.cfg.JWTSecret); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	h.feed.Register(conn)

	// Read loop only services control frames; the feed is one-way.
	go func() {
		defer h.feed.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
