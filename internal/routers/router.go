package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	chat_handler "github.com/xenn00/social-chat/internal/handlers/chat-handler"
	"github.com/xenn00/social-chat/internal/identity"
	"github.com/xenn00/social-chat/internal/middleware"
	"github.com/xenn00/social-chat/internal/websocket"
)

type Deps struct {
	Resolver  identity.Resolver
	Chat      *chat_handler.ChatHandler
	Hub       *websocket.Hub
	WebSocket http.Handler
	Metrics   prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)

	// the websocket handshake authenticates on its own
	r.Handle("/ws", deps.WebSocket)
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	HubRouter(r, deps.Hub, deps.Resolver)
	ChatRouter(r, deps.Chat, deps.Resolver)
	return r
}
