package websocket

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	handshakesPerSecond = 2
	handshakeBurst      = 10
	limiterIdleTTL      = 5 * time.Minute
)

// ipLimiter throttles handshake attempts from one address.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type connectionTracker struct {
	mu       sync.Mutex
	total    int
	perIP    map[string]int
	limiters map[string]*ipLimiter
}

func newConnectionTracker() *connectionTracker {
	return &connectionTracker{
		perIP:    make(map[string]int),
		limiters: make(map[string]*ipLimiter),
	}
}

func (h *WebSocketHandler) getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}

// acquire reserves a connection slot for ip. It reports the HTTP status to
// answer with when no slot is available.
func (h *WebSocketHandler) acquire(ip string) (bool, int) {
	t := h.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(handshakesPerSecond, handshakeBurst)}
		t.limiters[ip] = l
	}
	l.lastSeen = time.Now()
	if !l.limiter.Allow() {
		return false, http.StatusTooManyRequests
	}

	if h.MaxConnections > 0 && t.total >= h.MaxConnections {
		return false, http.StatusServiceUnavailable
	}
	if h.ConnectionsPerIP > 0 && t.perIP[ip] >= h.ConnectionsPerIP {
		return false, http.StatusTooManyRequests
	}

	t.total++
	t.perIP[ip]++
	return true, 0
}

func (h *WebSocketHandler) release(ip string) {
	t := h.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total--
	t.perIP[ip]--
	if t.perIP[ip] <= 0 {
		delete(t.perIP, ip)
	}
}

// ConnectionCount returns the number of connections holding a slot.
func (h *WebSocketHandler) ConnectionCount() int {
	h.tracker.mu.Lock()
	defer h.tracker.mu.Unlock()
	return h.tracker.total
}

// StartCleanup drops handshake limiters of addresses that went quiet.
func (h *WebSocketHandler) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.cleanupRateLimiters(time.Now())
		}
	}
}

func (h *WebSocketHandler) cleanupRateLimiters(now time.Time) {
	t := h.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	for ip, l := range t.limiters {
		if now.Sub(l.lastSeen) > limiterIdleTTL && t.perIP[ip] == 0 {
			delete(t.limiters, ip)
		}
	}
}
