package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/identity"
	"golang.org/x/time/rate"
)

type Limits struct {
	MaxConnections   int
	ConnectionsPerIP int
	EventsPerSecond  float64
	EventBurst       int
	// AllowedOrigins lists browser origins allowed to open a socket. Empty
	// means same origin only; "*" allows any origin.
	AllowedOrigins []string
}

// WebSocketHandler authenticates the handshake, upgrades the connection and
// hands it to the hub and gateway.
type WebSocketHandler struct {
	Hub      *Hub
	Gateway  *Gateway
	Resolver identity.Resolver

	MaxConnections   int
	ConnectionsPerIP int
	EventsPerSecond  rate.Limit
	EventBurst       int

	upgrader websocket.Upgrader
	tracker  *connectionTracker
}

func NewWebSocketHandler(hub *Hub, gateway *Gateway, resolver identity.Resolver, limits Limits) *WebSocketHandler {
	return &WebSocketHandler{
		Hub:              hub,
		Gateway:          gateway,
		Resolver:         resolver,
		MaxConnections:   limits.MaxConnections,
		ConnectionsPerIP: limits.ConnectionsPerIP,
		EventsPerSecond:  rate.Limit(limits.EventsPerSecond),
		EventBurst:       limits.EventBurst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(limits.AllowedOrigins),
		},
		tracker: newConnectionTracker(),
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := h.getClientIP(r)
	if ok, status := h.acquire(ip); !ok {
		log.Warn().Str("ip", ip).Int("status", status).Msg("ws: connection refused")
		writeHandshakeError(w, app_error.NewAppError(status, "connection limit reached", "ws"))
		return
	}

	ident, appErr := h.authenticateConnection(r)
	if appErr != nil {
		h.release(ip)
		writeHandshakeError(w, appErr)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered the request
		h.release(ip)
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	var limiter *rate.Limiter
	if h.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(h.EventsPerSecond, h.EventBurst)
	}

	client := NewClient(conn, ident, limiter)
	client.onClose = func() { h.release(ip) }

	h.Hub.Register(client)
	client.Start(h.Hub, h.Gateway)

	log.Info().Str("clientID", client.ID).Str("userID", client.UserID).Str("ip", ip).Msg("ws: connection established")
}

// originChecker returns nil for an empty list so gorilla applies its
// same-origin check. Requests without an Origin header come from non-browser
// clients and are always accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	origins := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := origins[strings.ToLower(origin)]
		if !ok {
			log.Warn().Str("origin", origin).Msg("ws: origin rejected")
		}
		return ok
	}
}

func writeHandshakeError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}
