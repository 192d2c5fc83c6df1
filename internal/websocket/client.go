package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/identity"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MB
	sendBuffer     = 256
)

// Client is one authenticated websocket connection. A user may hold
// several clients at once.
type Client struct {
	ID          string
	UserID      string
	DisplayName string
	Conn        *websocket.Conn
	Send        chan []byte
	ConnectedAt time.Time

	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.RWMutex
	lastSeen time.Time
	rooms    map[string]struct{}

	closeOnce sync.Once
	onClose   func()
}

func NewClient(conn *websocket.Conn, ident *identity.Identity, limiter *rate.Limiter) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Client{
		ID:          uuid.NewString(),
		UserID:      ident.ActorID,
		DisplayName: ident.DisplayName,
		Conn:        conn,
		Send:        make(chan []byte, sendBuffer),
		ConnectedAt: now,
		limiter:     limiter,
		ctx:         ctx,
		cancel:      cancel,
		lastSeen:    now,
		rooms:       make(map[string]struct{}),
	}
}

// Start runs the pumps. Inbound frames are handled one at a time in the
// read pump so a connection's events keep their order.
func (c *Client) Start(hub *Hub, gateway *Gateway) {
	go c.writePump()
	go c.readPump(hub, gateway)
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
		if c.onClose != nil {
			c.onClose()
		}
	})
}

func (c *Client) IsClientActive() bool {
	return c.ctx.Err() == nil
}

func (c *Client) GetLastSeen() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSeen
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (c *Client) addRoom(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) removeRoom(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

// SendMessage queues one frame for this connection only. It never blocks.
func (c *Client) SendMessage(msg OutgoingMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("clientID", c.ID).Msg("ws: failed to marshal client message")
		return false
	}
	return c.enqueue(data)
}

func (c *Client) sendError(source string, appErr *app_error.AppError) {
	c.SendMessage(NewErrorMessage(source, appErr))
}

func (c *Client) enqueue(data []byte) bool {
	if !c.IsClientActive() {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// writePump: take data from c.Send and send to socket + ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			if _, err := w.Write(msg); err != nil {
				_ = w.Close()
				return
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump: read frames from the client + handle pong for keep-alive.
// Leaving the loop releases every room of this connection.
func (c *Client) readPump(hub *Hub, gateway *Gateway) {
	defer func() {
		hub.Unregister(c)
		c.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.touch()
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("clientID", c.ID).Msg("ws: unexpected close")
			}
			return
		}
		c.touch()

		if c.limiter != nil && !c.limiter.Allow() {
			gateway.Metrics.event("rate_limited", "rejected")
			c.sendError("rate_limit", app_error.NewAppError(http.StatusTooManyRequests, "too many events, slow down", "ws"))
			continue
		}

		gateway.HandleFrame(c.ctx, c, data)
	}
}
