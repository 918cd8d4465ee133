package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Hub is a process-scoped connection registry keyed by user. It is owned by
// whoever constructs it, not by the package.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]*websocket.Conn)}
}

func (h *Hub) Join(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[userID] = conn
	log.Printf("Client registered: %s", userID)
}

// Leave removes the connection only if it is still the registered one, so a
// reconnect racing a stale disconnect does not drop the fresh connection.
func (h *Hub) Leave(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[userID]; ok && current == conn {
		delete(h.clients, userID)
	}
	log.Printf("Client unregistered: %s", userID)
}

// Broadcast delivers a payload to every recipient with a live connection.
// Dead connections are evicted on write failure.
func (h *Hub) Broadcast(recipients []uuid.UUID, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range recipients {
		conn, ok := h.clients[id]
		if !ok {
			continue
		}
		if err := conn.WriteJSON(payload); err != nil {
			log.Printf("Error sending message to client %s: %v", id, err)
			conn.Close()
			delete(h.clients, id)
		}
	}
}
