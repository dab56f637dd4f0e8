package websocket

import (
	"agri-advisor/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches an upgraded connection to the hub for the session.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string, log logger.ILogger) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256), logger: log}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
