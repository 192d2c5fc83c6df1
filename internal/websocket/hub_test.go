package websocket

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/social-chat/internal/identity"
)

func newHubClient(h *Hub, userID string) *Client {
	c := NewClient(nil, &identity.Identity{ActorID: userID}, nil)
	h.Register(c)
	return c
}

func TestHub_UnregisterReleasesRooms(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	alice := newHubClient(hub, "alice")
	hub.Join("group:g1", alice)
	hub.Join("private:alice:bob", alice)
	require.True(t, hub.IsUserOnline("alice"))

	hub.Unregister(alice)

	assert.Empty(t, hub.GetRoomClients("group:g1"))
	assert.Empty(t, hub.GetRoomClients("private:alice:bob"))
	assert.False(t, hub.IsUserOnline("alice"))
	assert.Equal(t, 0, hub.GetHubStats().TotalRooms)
}

func TestHub_BroadcastKeepsOrderPerRoom(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	bob := newHubClient(hub, "bob")
	hub.Join("group:g1", bob)

	for i := 0; i < 20; i++ {
		hub.BroadcastToRoom("group:g1", OutgoingMessage{Type: EventGroupMessage, Data: map[string]int{"seq": i}})
	}

	for i := 0; i < 20; i++ {
		var got struct {
			Data map[string]int `json:"data"`
		}
		require.NoError(t, json.Unmarshal(<-bob.Send, &got))
		assert.Equal(t, i, got.Data["seq"])
	}
}

func TestHub_SlowConsumerIsClosed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	hub := NewHub(metrics)
	defer hub.Close()

	slow := newHubClient(hub, "slow")
	fast := newHubClient(hub, "fast")
	hub.Join("group:g1", slow)
	hub.Join("group:g1", fast)

	for slow.enqueue([]byte("{}")) {
	}

	delivered := hub.BroadcastToRoom("group:g1", OutgoingMessage{Type: EventGroupMessage})
	assert.Equal(t, 1, delivered)
	assert.Eventually(t, func() bool { return !slow.IsClientActive() }, time.Second, 10*time.Millisecond)
	assert.True(t, fast.IsClientActive())
	assert.Equal(t, float64(1), promtest.ToFloat64(metrics.SlowConsumers))
	assert.Equal(t, float64(2), promtest.ToFloat64(metrics.ActiveConnections))
}

func TestHub_UserStatusSkipsTheUser(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	alice := newHubClient(hub, "alice")
	hub.Join("group:g1", alice)
	bob := newHubClient(hub, "bob")
	hub.Join("group:g1", bob)

	var got OutgoingMessage
	require.NoError(t, json.Unmarshal(<-alice.Send, &got))
	assert.Equal(t, EventUserStatus, got.Type)
	assert.Len(t, bob.Send, 0)
}

func TestHub_LeaveIgnoresNonMembers(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	alice := newHubClient(hub, "alice")
	mallory := newHubClient(hub, "mallory")
	hub.Join("group:g1", alice)

	assert.False(t, hub.Leave("group:g1", mallory))
	assert.False(t, hub.Leave("group:nowhere", mallory))
	assert.Empty(t, alice.Send)
	assert.Len(t, hub.GetRoomClients("group:g1"), 1)

	assert.True(t, hub.Leave("group:g1", alice))
	assert.Equal(t, 0, hub.GetHubStats().TotalRooms)
}
