package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ken-william/dreamshare/internal/types"
)

// Hub maintains the set of connected users and pushes events to them. One
// connection per user; a new connection replaces the old one.
type Hub struct {
	clients map[int64]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu sync.RWMutex
}

type broadcastMessage struct {
	userIDs []int64
	event   *types.Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if existing, exists := h.clients[client.userID]; exists {
				close(existing.send)
				slog.Info("Replaced existing WebSocket connection", slog.Int64("user_id", client.userID))
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.Int64("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.Int64("user_id", client.userID))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.send(message.userIDs, message.event)
		}
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// BroadcastToUser sends an event to a single user if connected.
func (h *Hub) BroadcastToUser(userID int64, event *types.Event) {
	h.broadcast <- &broadcastMessage{userIDs: []int64{userID}, event: event}
}

// BroadcastToUsers sends an event to every listed user that is connected.
func (h *Hub) BroadcastToUsers(userIDs []int64, event *types.Event) {
	h.broadcast <- &broadcastMessage{userIDs: userIDs, event: event}
}

// IsUserConnected reports whether the user has an active connection.
func (h *Hub) IsUserConnected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) send(userIDs []int64, event *types.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		client, ok := h.clients[userID]
		if !ok {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the event rather than block the hub.
			slog.Warn("Dropping event for slow WebSocket client", slog.Int64("user_id", userID))
		}
	}
}
