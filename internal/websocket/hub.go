// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package websocket pushes live console state to connected dashboard
// browsers: query cache updates, user-facing notices and session resets.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/metrics"
	"github.com/nsa-x/console/internal/notify"
)

// Message types pushed to dashboard clients.
const (
	MessageTypeNotice       = "notice"
	MessageTypeQueryUpdate  = "query_update"
	MessageTypeSessionReset = "session_reset"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is the wire envelope for dashboard push messages.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of connected dashboard clients and broadcasts
// messages to them. It runs as a supervised service: Serve blocks until its
// context is cancelled, then closes every client so the browser reconnects
// to the restarted hub.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Serve runs the hub loop until ctx is cancelled. Lifecycle events take
// priority over broadcasts so client state is settled before messages fan
// out.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			logging.Info().Str("component", "websocket-hub").Msg("Hub stopped")
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.register:
			h.addClient(client)
			continue
		case client := <-h.unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.closeAllClients()
			logging.Info().Str("component", "websocket-hub").Msg("Hub stopped")
			return ctx.Err()
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String names the hub in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSClients.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("Dashboard client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSClients.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("Dashboard client disconnected")
}

// broadcastToClients fans a message out in client-id order. Clients whose
// send buffer is full are dropped; a stuck browser must not hold up the
// rest.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.WithLabelValues(message.Type).Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Msg("Dropping slow dashboard client")
	}
	if len(toRemove) > 0 {
		metrics.WSClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSClients.Set(0)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a message for all clients, dropping it when the hub is
// saturated.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("Broadcast channel full, dropping message")
	}
}

// BroadcastNotice pushes a user-facing notice.
func (h *Hub) BroadcastNotice(n notify.Notice) {
	h.Broadcast(MessageTypeNotice, n)
}

// BroadcastQueryUpdate tells clients a cached resource changed so they
// re-read it from the UI API.
func (h *Hub) BroadcastQueryUpdate(u notify.QueryUpdate) {
	h.Broadcast(MessageTypeQueryUpdate, u)
}

// BroadcastSessionReset forces every connected client back to the login
// view.
func (h *Hub) BroadcastSessionReset() {
	h.Broadcast(MessageTypeSessionReset, nil)
}
