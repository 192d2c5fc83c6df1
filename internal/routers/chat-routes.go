package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/xenn00/social-chat/internal/handlers"
	chat_handler "github.com/xenn00/social-chat/internal/handlers/chat-handler"
	"github.com/xenn00/social-chat/internal/identity"
	"github.com/xenn00/social-chat/internal/middleware"
)

func ChatRouter(r chi.Router, chatHandler *chat_handler.ChatHandler, resolver identity.Resolver) {
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(resolver))
		conversationRoutes(protected, "/api/v1/chats/private/{peerId}/messages", chatHandler, chat_handler.PrivateRefFromURL)
		conversationRoutes(protected, "/api/v1/chats/groups/{groupId}/messages", chatHandler, chat_handler.GroupRefFromURL)
	})
}

func conversationRoutes(r chi.Router, prefix string, h *chat_handler.ChatHandler, refOf chat_handler.RefFunc) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", handlers.WrapHandler(h.ListMessages(refOf)))
		r.Post("/", handlers.WrapHandler(h.SendMessage(refOf)))
		r.Patch("/{messageId}", handlers.WrapHandler(h.EditMessage(refOf)))
		r.Delete("/{messageId}", handlers.WrapHandler(h.DeleteMessage(refOf)))
		r.Post("/{messageId}/reactions", handlers.WrapHandler(h.ToggleReaction(refOf)))
	})
}
