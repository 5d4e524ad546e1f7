package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	ws "github.com/user/papertrade/internal/websocket"
)

// Stream serves the market feed WebSocket. Each connection receives every
// price update and order lifecycle event broadcast by the hub.
func (h *Handler) Stream(c *websocket.Conn) {
	client := &ws.Client{
		Conn: c,
		Send: make(chan []byte, 256),
	}
	h.hub.Register <- client

	go h.clientWritePump(client)

	h.log.Debug("websocket connection established",
		zap.String("remote", c.RemoteAddr().String()))

	// Read pump runs on the handler goroutine; it only drains control
	// frames and detects disconnects.
	h.clientReadPump(client)
}

func (h *Handler) clientWritePump(client *ws.Client) {
	defer client.Conn.Close()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.hub.Unregister <- client
			return
		}
	}
}

func (h *Handler) clientReadPump(client *ws.Client) {
	defer func() {
		h.hub.Unregister <- client
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket client disconnected unexpectedly",
					zap.String("remote", client.Conn.RemoteAddr().String()), zap.Error(err))
			}
			return
		}
	}
}
