package websocket

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Hub struct {
	// Room management
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	// User tracking
	userClients map[string][]*Client // userID -> [clients]
	userMu      sync.RWMutex

	// sendMu serializes fan-out so every room sees events in processing order
	sendMu sync.Mutex

	// Hub lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	// Metrics
	stats   HubStats
	statsMu sync.RWMutex
	metrics *Metrics

	// Cleanup
	cleanupTicker *time.Ticker
}

type HubStats struct {
	TotalRooms       int       `json:"total_rooms"`
	TotalClients     int       `json:"total_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessageSent      int64     `json:"message_sent"`
	LastReset        time.Time `json:"last_reset"`
}

func NewHub(metrics *Metrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		rooms:       make(map[string]map[*Client]struct{}),
		userClients: make(map[string][]*Client),
		ctx:         ctx,
		cancel:      cancel,
		stats: HubStats{
			LastReset: time.Now(),
		},
		metrics:       metrics,
		cleanupTicker: time.NewTicker(1 * time.Minute),
	}

	// Start cleanup routine
	go hub.cleanupRoutine()

	return hub
}

// Register tracks a new connection. Rooms are joined separately.
func (h *Hub) Register(client *Client) {
	h.userMu.Lock()
	h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
	h.userMu.Unlock()

	h.updateStats(func(stats *HubStats) {
		stats.TotalConnections++
	})
	h.metrics.connected()

	log.Info().Str("clientID", client.ID).Str("userID", client.UserID).Msg("ws: client registered")
}

// Unregister removes a connection from every room it joined.
func (h *Hub) Unregister(client *Client) {
	for _, room := range client.Rooms() {
		h.Leave(room, client)
	}

	h.userMu.Lock()
	userClients := h.userClients[client.UserID]
	found := false
	for i, c := range userClients {
		if c == client {
			h.userClients[client.UserID] = append(userClients[:i:i], userClients[i+1:]...)
			found = true
			break
		}
	}

	// Clean up empty user entries
	if len(h.userClients[client.UserID]) == 0 {
		delete(h.userClients, client.UserID)
	}
	h.userMu.Unlock()

	if found {
		h.metrics.disconnected()
		log.Info().Str("clientID", client.ID).Str("userID", client.UserID).Msg("ws: client unregistered")
	}
}

func (h *Hub) Join(roomID string, client *Client) {
	h.mu.Lock()
	// Initialize room if doesn't exist
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	_, already := h.rooms[roomID][client]
	h.rooms[roomID][client] = struct{}{}
	size := len(h.rooms[roomID])
	h.mu.Unlock()

	client.addRoom(roomID)
	if already {
		return
	}

	h.broadcastUserStatus(roomID, client.UserID, true)
	log.Debug().Str("roomID", roomID).Str("clientID", client.ID).Int("roomSize", size).Msg("ws: client joined room")
}

// Leave removes the connection from the room and reports whether it was a
// member. Presence is only announced for real members.
func (h *Hub) Leave(roomID string, client *Client) bool {
	h.mu.Lock()
	clients, ok := h.rooms[roomID]
	if ok {
		_, ok = clients[client]
	}
	if !ok {
		h.mu.Unlock()
		client.removeRoom(roomID)
		return false
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, roomID)
	}
	h.mu.Unlock()
	client.removeRoom(roomID)

	if !h.IsUserOnlineInRoom(roomID, client.UserID) {
		h.broadcastUserStatus(roomID, client.UserID, false)
	}
	return true
}

// BroadcastToRoom sends a message to all clients in a room and returns how
// many connections it was queued for.
func (h *Hub) BroadcastToRoom(roomID string, message OutgoingMessage) int {
	return h.broadcastToRoomInternal(roomID, message, "")
}

func (h *Hub) broadcastToRoomInternal(roomID string, message OutgoingMessage, exceptUserID string) int {
	message.RoomID = roomID
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("roomID", roomID).Msg("ws: failed to marshal broadcast message")
		return 0
	}

	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	// Get snapshot of clients (minimize lock time)
	h.mu.RLock()
	var targets []*Client
	if clients, ok := h.rooms[roomID]; ok {
		targets = make([]*Client, 0, len(clients))
		for client := range clients {
			if exceptUserID != "" && client.UserID == exceptUserID {
				continue
			}
			if client.IsClientActive() {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		if client.enqueue(data) {
			delivered++
			continue
		}
		// Client buffer full - slow consumer
		log.Warn().Str("roomID", roomID).Str("clientID", client.ID).Msg("ws: slow consumer, closing connection")
		h.metrics.slowConsumer()
		go client.Close()
	}

	h.updateStats(func(stats *HubStats) {
		stats.MessageSent += int64(delivered)
	})
	h.metrics.delivered(delivered)

	log.Debug().Str("roomID", roomID).Int("targets", delivered).Str("event", message.Type).Msg("ws: broadcast completed")
	return delivered
}

// BroadcastToUser sends a message to all connections of a specific user
func (h *Hub) BroadcastToUser(userID string, message OutgoingMessage) int {
	clients := h.GetUserClients(userID)
	if len(clients) == 0 {
		return 0
	}

	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("ws: failed to marshal user message")
		return 0
	}

	delivered := 0
	for _, client := range clients {
		if client.enqueue(data) {
			delivered++
		} else {
			log.Warn().Str("userID", userID).Str("clientID", client.ID).Msg("ws: user client buffer full")
		}
	}
	return delivered
}

// Utility methods

// GetRoomClients return all active clients in a room
func (h *Hub) GetRoomClients(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	if roomClients, ok := h.rooms[roomID]; ok {
		for client := range roomClients {
			if client.IsClientActive() {
				clients = append(clients, client)
			}
		}
	}

	return clients
}

// GetUserClients returns all active clients for a user
func (h *Hub) GetUserClients(userID string) []*Client {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	var activeClients []*Client
	for _, client := range h.userClients[userID] {
		if client.IsClientActive() {
			activeClients = append(activeClients, client)
		}
	}

	return activeClients
}

// IsUserOnline reports whether the user holds any live connection.
func (h *Hub) IsUserOnline(userID string) bool {
	return len(h.GetUserClients(userID)) > 0
}

// IsUserOnlineInRoom checks if a user has any active connections in a room
func (h *Hub) IsUserOnlineInRoom(roomID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		if client.UserID == userID && client.IsClientActive() {
			return true
		}
	}

	return false
}

// GetRoomStats returns statistics for a room
func (h *Hub) GetRoomStats(roomID string) map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]any{
		"room_id": roomID,
		"exists":  false,
	}

	if clients, ok := h.rooms[roomID]; ok {
		activeClients := 0
		uniqueUsers := make(map[string]bool)

		for client := range clients {
			if client.IsClientActive() {
				activeClients++
				uniqueUsers[client.UserID] = true
			}
		}

		stats["exists"] = true
		stats["total_connections"] = len(clients)
		stats["active_connections"] = activeClients
		stats["unique_users"] = len(uniqueUsers)
	}

	return stats
}

// GetHubStats returns overall hub statistics
func (h *Hub) GetHubStats() HubStats {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	h.mu.RLock()
	h.stats.TotalRooms = len(h.rooms)
	h.mu.RUnlock()

	totalClients := 0
	h.userMu.RLock()
	for _, clients := range h.userClients {
		for _, client := range clients {
			if client.IsClientActive() {
				totalClients++
			}
		}
	}
	h.userMu.RUnlock()
	h.stats.TotalClients = totalClients

	return h.stats
}

func (h *Hub) broadcastUserStatus(roomID, userID string, online bool) {
	status := "offline"
	if online {
		status = "online"
	}

	message := OutgoingMessage{
		Type: EventUserStatus,
		Data: map[string]any{
			"userId": userID,
			"status": status,
		},
		Timestamp: time.Now().Unix(),
	}

	// Don't broadcast to the user themselves
	h.broadcastToRoomInternal(roomID, message, userID)
}

func (h *Hub) updateStats(fn func(*HubStats)) {
	h.statsMu.Lock()
	fn(&h.stats)
	h.statsMu.Unlock()
}

func (h *Hub) cleanupRoutine() {
	defer h.cleanupTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.cleanupTicker.C:
			h.performCleanup()
		}
	}
}

func (h *Hub) allClients() []*Client {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	var all []*Client
	for _, clients := range h.userClients {
		all = append(all, clients...)
	}
	return all
}

// performCleanup closes connections that stopped answering pings.
func (h *Hub) performCleanup() {
	now := time.Now()
	inactiveThreshold := 2 * time.Minute

	cleaned := 0
	for _, client := range h.allClients() {
		if !client.IsClientActive() || now.Sub(client.GetLastSeen()) > inactiveThreshold {
			log.Info().Str("clientID", client.ID).Str("userID", client.UserID).Msg("ws: cleaning up inactive client")
			client.Close()
			h.Unregister(client)
			cleaned++
		}
	}

	log.Debug().Int("cleaned", cleaned).Msg("ws: cleanup routine completed")
}

// Close gracefully shuts down the hub
func (h *Hub) Close() {
	log.Info().Msg("ws: shutting down hub")

	h.cancel()

	allClients := h.allClients()
	for _, client := range allClients {
		client.Close()
	}

	log.Info().Int("clients", len(allClients)).Msg("ws: hub shutdown completed")
}
