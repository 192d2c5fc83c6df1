package hub_handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/handlers"
	"github.com/xenn00/social-chat/internal/websocket"
)

type HubHandler struct {
	Hub *websocket.Hub
}

func NewHubHandler(hub *websocket.Hub) *HubHandler {
	return &HubHandler{
		Hub: hub,
	}
}

func (h *HubHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "social-chat",
	})
}

func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	handlers.Respond(w, r, http.StatusOK, "get websocket stats", h.Hub.GetHubStats())
	return nil
}

// Room handlers

func (h *HubHandler) HandleGetRoomStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	handlers.Respond(w, r, http.StatusOK, "get websocket room stats", h.Hub.GetRoomStats(roomID))
	return nil
}

type ClientInfo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Rooms       []string  `json:"rooms"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
	IsActive    bool      `json:"is_active"`
}

func clientInfo(client *websocket.Client) ClientInfo {
	return ClientInfo{
		ID:          client.ID,
		UserID:      client.UserID,
		Rooms:       client.Rooms(),
		ConnectedAt: client.ConnectedAt,
		LastSeen:    client.GetLastSeen(),
		IsActive:    client.IsClientActive(),
	}
}

func (h *HubHandler) HandleGetRoomClients(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	clients := h.Hub.GetRoomClients(roomID)

	clientList := make([]ClientInfo, 0, len(clients))
	for _, client := range clients {
		clientList = append(clientList, clientInfo(client))
	}

	handlers.Respond(w, r, http.StatusOK, "successfully get rooms client", map[string]any{
		"room_id": roomID,
		"count":   len(clientList),
		"clients": clientList,
	})
	return nil
}

type announcement struct {
	Content string         `json:"content"`
	Data    map[string]any `json:"data"`
}

func decodeAnnouncement(r *http.Request) (announcement, *app_error.AppError) {
	var payload announcement
	if err := handlers.DecodeJSON(r, &payload); err != nil {
		return payload, err
	}
	if strings.TrimSpace(payload.Content) == "" {
		return payload, app_error.Validation("Content is required", "content")
	}
	return payload, nil
}

// HandleBroadcastToRoom sends an operator announcement. It is always a
// system event, so it can never pass for a user's chat message.
func (h *HubHandler) HandleBroadcastToRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	payload, appErr := decodeAnnouncement(r)
	if appErr != nil {
		return appErr
	}

	msg := websocket.NewSystemMessage(roomID, payload.Content, payload.Data)
	delivered := h.Hub.BroadcastToRoom(roomID, msg)

	handlers.Respond(w, r, http.StatusOK, "successfully broadcast to room", map[string]any{
		"status":    "sent",
		"room_id":   roomID,
		"type":      msg.Type,
		"delivered": delivered,
		"timestamp": time.Now().Unix(),
	})
	return nil
}

// HandleKickUser removes every connection of a user from the room. The
// connections stay open.
func (h *HubHandler) HandleKickUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	var payload struct {
		UserID string `json:"user_id"`
		Reason string `json:"reason"`
	}
	if err := handlers.DecodeJSON(r, &payload); err != nil {
		return err
	}
	if payload.UserID == "" {
		return app_error.Validation("user_id is required", "user_id")
	}

	kicked := 0
	for _, client := range h.Hub.GetRoomClients(roomID) {
		if client.UserID != payload.UserID {
			continue
		}
		h.Hub.Leave(roomID, client)
		client.SendMessage(websocket.NewSystemMessage(roomID,
			fmt.Sprintf("You have been removed from the room. Reason: %s", payload.Reason),
			map[string]any{"action": "kicked"}))
		kicked++
	}

	handlers.Respond(w, r, http.StatusOK, "successfully kick users", map[string]any{
		"status":         "success",
		"kicked_clients": kicked,
		"user_id":        payload.UserID,
	})
	return nil
}

// User handlers

func (h *HubHandler) HandleGetUserStatus(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID := chi.URLParam(r, "userId")
	roomID := r.URL.Query().Get("roomId")

	activeClients := len(h.Hub.GetUserClients(userID))
	isOnline := activeClients > 0
	if roomID != "" {
		isOnline = h.Hub.IsUserOnlineInRoom(roomID, userID)
	}

	handlers.Respond(w, r, http.StatusOK, "successful get user status", map[string]any{
		"user_id":        userID,
		"online":         isOnline,
		"active_clients": activeClients,
		"room_id":        roomID,
	})
	return nil
}

func (h *HubHandler) HandleGetUserConnections(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID := chi.URLParam(r, "userId")
	clients := h.Hub.GetUserClients(userID)

	connections := make([]ClientInfo, 0, len(clients))
	for _, client := range clients {
		connections = append(connections, clientInfo(client))
	}

	handlers.Respond(w, r, http.StatusOK, "successfully get user connection", map[string]any{
		"user_id":     userID,
		"count":       len(connections),
		"connections": connections,
	})
	return nil
}

func (h *HubHandler) HandleBroadcastToUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID := chi.URLParam(r, "userId")

	payload, appErr := decodeAnnouncement(r)
	if appErr != nil {
		return appErr
	}

	msg := websocket.NewSystemMessage("", payload.Content, payload.Data)
	delivered := h.Hub.BroadcastToUser(userID, msg)

	handlers.Respond(w, r, http.StatusOK, "successfully broadcast to user", map[string]any{
		"status":    "sent",
		"user_id":   userID,
		"type":      msg.Type,
		"delivered": delivered,
		"timestamp": time.Now().Unix(),
	})
	return nil
}

func (h *HubHandler) HandleDisconnectUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID := chi.URLParam(r, "userId")

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := handlers.DecodeJSON(r, &payload); err != nil {
		return err
	}

	disconnected := 0
	for _, client := range h.Hub.GetUserClients(userID) {
		client.SendMessage(websocket.NewSystemMessage("",
			fmt.Sprintf("Connection closed: %s", payload.Reason),
			map[string]any{"action": "force_disconnect"}))
		client.Close()
		disconnected++
	}

	handlers.Respond(w, r, http.StatusOK, "successfully disconnect user", map[string]any{
		"status":               "success",
		"disconnected_clients": disconnected,
		"user_id":              userID,
		"reason":               payload.Reason,
	})
	return nil
}
