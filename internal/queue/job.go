package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobBroadcastPrivateMessage = "broadcast_private_message"
	JobBroadcastGroupMessage   = "broadcast_group_message"
	JobBroadcastRoomEvent      = "broadcast_room_event"
	JobNotificationEmail       = "notification_email"
)

const (
	QueueKey = "priority_queue"
	DLQKey   = "priority_queue_dlq"
	// RelayKey is a FIFO list of room relays, drained by a single consumer.
	RelayKey = "relay_queue"
)

// Relayed reports whether a job type fans out to a websocket room. Relays
// for the same room must reach clients in the order they were produced, so
// they skip the priority set and its concurrent workers.
func Relayed(jobType string) bool {
	switch jobType {
	case JobBroadcastPrivateMessage, JobBroadcastGroupMessage, JobBroadcastRoomEvent:
		return true
	}
	return false
}

// Priorities, lower runs first among jobs that are ready at the same second.
const (
	PriorityRealtime = 0
	PriorityDefault  = 50
	PriorityLow      = 99
)

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Priority  int             `json:"priority"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	ErrorMsg  string          `json:"error_msg,omitempty"`
	CreatedAt int64           `json:"created_at"`
	ExpireAt  int64           `json:"expired_at"`
}

func NewJob(jobType string, payload any, priority int, ttl time.Duration) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	now := time.Now()
	return Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Payload:   raw,
		Priority:  priority,
		MaxRetry:  3,
		CreatedAt: now.Unix(),
		ExpireAt:  now.Add(ttl).Unix(),
	}, nil
}

// Score orders the queue by the second a job becomes ready, then priority.
func Score(readyAt int64, priority int) float64 {
	return float64(readyAt) + float64(priority)/100
}

func MustMarshal(payload any) json.RawMessage {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil
	}

	return b
}
