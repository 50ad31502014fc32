// Package websocket provides the gateway that pushes view.Frame updates
// (internal/core/view) to connected clients and dispatches their CLI-like
// commands through internal/hostapi.Dispatch.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kandev/kandev/internal/common/logger"
	ws "github.com/kandev/kandev/pkg/websocket"
	"go.uber.org/zap"
)

// allAgents is the subscription key a client uses to receive Frames for
// every agent instead of one in particular.
const allAgents = "*"

// Hub manages all WebSocket client connections and fans out view.Frame
// pushes to clients subscribed to the agent named in each Frame.
type Hub struct {
	clients map[*Client]bool

	// agentSubscribers maps an agent name (or allAgents) to the clients
	// that want its Frames pushed to them.
	agentSubscribers map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *ws.Message

	dispatcher *ws.Dispatcher

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(dispatcher *ws.Dispatcher, log *logger.Logger) *Hub {
	return &Hub{
		clients:          make(map[*Client]bool),
		agentSubscribers: make(map[string]map[*Client]bool),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		broadcast:        make(chan *ws.Message, 256),
		dispatcher:       dispatcher,
		logger:           log.WithFields(zap.String("component", "ws_hub")),
	}
}

// Run starts the hub's main processing loop.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer h.logger.Info("WebSocket hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.agentSubscribers = make(map[string]map[*Client]bool)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		for agent := range client.subscriptions {
			if clients, ok := h.agentSubscribers[agent]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.agentSubscribers, agent)
				}
			}
		}
	}
	h.logger.Debug("Client unregistered", zap.String("client_id", client.ID))
}

func (h *Hub) broadcastMessage(msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client buffer full; the message is dropped for this client.
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(msg *ws.Message) {
	h.broadcast <- msg
}

// PushFrame sends a view.Frame-carrying message to clients subscribed to
// its agent, as well as clients subscribed to every agent.
func (h *Hub) PushFrame(agent string, msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]bool)
	for _, key := range []string{agent, allAgents} {
		for client := range h.agentSubscribers[key] {
			if seen[client] {
				continue
			}
			seen[client] = true
			select {
			case client.send <- data:
			default:
			}
		}
	}
}

// SubscribeToAgent subscribes a client to Frames for one agent, or every
// agent when name is allAgents ("*").
func (h *Hub) SubscribeToAgent(client *Client, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.agentSubscribers[name]; !ok {
		h.agentSubscribers[name] = make(map[*Client]bool)
	}
	h.agentSubscribers[name][client] = true
	client.subscriptions[name] = true

	h.logger.Debug("Client subscribed to agent",
		zap.String("client_id", client.ID),
		zap.String("agent", name))
}

// UnsubscribeFromAgent removes a client's subscription to one agent.
func (h *Hub) UnsubscribeFromAgent(client *Client, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.subscriptions, name)
	if clients, ok := h.agentSubscribers[name]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.agentSubscribers, name)
		}
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetDispatcher returns the message dispatcher.
func (h *Hub) GetDispatcher() *ws.Dispatcher {
	return h.dispatcher
}
