package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/xenn00/social-chat/internal/handlers"
	hub_handler "github.com/xenn00/social-chat/internal/handlers/hub-handler"
	"github.com/xenn00/social-chat/internal/identity"
	"github.com/xenn00/social-chat/internal/middleware"
	"github.com/xenn00/social-chat/internal/websocket"
)

func HubRouter(r chi.Router, wsHub *websocket.Hub, resolver identity.Resolver) {
	hubHandler := hub_handler.NewHubHandler(wsHub)
	r.Get("/api/v1/health", hubHandler.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(resolver))

		// counts and presence only
		r.Get("/api/v1/rooms/{roomId}/stats", handlers.WrapHandler(hubHandler.HandleGetRoomStats))
		r.Get("/api/v1/users/{userId}/status", handlers.WrapHandler(hubHandler.HandleGetUserStatus))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(identity.RoleAdmin))
			r.Get("/api/v1/stats", handlers.WrapHandler(hubHandler.HandleGetStats))

			r.Get("/api/v1/rooms/{roomId}/clients", handlers.WrapHandler(hubHandler.HandleGetRoomClients))
			r.Post("/api/v1/rooms/{roomId}/broadcast", handlers.WrapHandler(hubHandler.HandleBroadcastToRoom))
			r.Post("/api/v1/rooms/{roomId}/kick", handlers.WrapHandler(hubHandler.HandleKickUser))

			r.Get("/api/v1/users/{userId}/connections", handlers.WrapHandler(hubHandler.HandleGetUserConnections))
			r.Post("/api/v1/users/{userId}/broadcast", handlers.WrapHandler(hubHandler.HandleBroadcastToUser))
			r.Post("/api/v1/users/{userId}/disconnect", handlers.WrapHandler(hubHandler.HandleDisconnectUser))
		})
	})
}
