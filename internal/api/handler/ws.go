package handler

import (
	"net/http"

	"civicpulse/backend/internal/feedhub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten for production!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeFeed upgrades the connection to a WebSocket and registers it as a live
// feed subscriber. Runs behind AuthRequired; browsers pass the token as a
// query parameter since they cannot set headers on WebSocket dials.
func (h *Handler) ServeFeed(c *gin.Context) {
	user := currentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := feedhub.NewWebSocketClient(user.UID, conn, h.Hub)
	h.Hub.RegisterCh <- client
}
