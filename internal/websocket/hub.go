package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/prices"
	"github.com/user/papertrade/internal/remote"
)

// Client represents a single WebSocket client connection.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte // Buffered channel for outbound messages
}

// Event is the envelope for everything the hub broadcasts.
type Event struct {
	Type string `json:"type"` // "price" or "order"
	Data any    `json:"data"`
}

// Hub fans price updates and order lifecycle events out to every connected
// client.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	mu         sync.Mutex
	log        *zap.Logger
}

// NewHub creates an idle hub; call Run to start it.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		log:        log,
	}
}

// Run drives the hub until ctx is cancelled, relaying priceFeed into the
// broadcast stream alongside events published via PublishOrder.
func (h *Hub) Run(ctx context.Context, priceFeed <-chan prices.Update) {
	h.log.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub stopped")
			return

		case update := <-priceFeed:
			h.publish(Event{Type: "price", Data: update})

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("websocket client registered",
				zap.String("remote", client.Conn.RemoteAddr().String()))

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client's send buffer is full, drop the connection.
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishOrder broadcasts an order lifecycle event.
func (h *Hub) PublishOrder(record remote.OrderRecord) {
	h.publish(Event{Type: "order", Data: record})
}

func (h *Hub) publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal hub event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("hub broadcast buffer full, dropping event",
			zap.String("type", event.Type))
	}
}
