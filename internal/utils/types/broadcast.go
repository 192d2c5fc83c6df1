package types

import (
	"encoding/json"

	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
)

// BroadcastMessagePayload carries a message that is already stored. The
// worker hands it to the gateway's relay branch, which never persists.
type BroadcastMessagePayload struct {
	ActorID string                   `json:"actor_id"`
	Ref     chat_dto.ConversationRef `json:"ref"`
	Message chat_dto.MessageResponse `json:"message"`
}

// RoomEventPayload is any other event fanned out to one room.
type RoomEventPayload struct {
	Room     string          `json:"room"`
	Event    string          `json:"event"`
	SenderID string          `json:"sender_id,omitempty"`
	Data     json.RawMessage `json:"data"`
}

type NotificationEmailPayload struct {
	NotificationID string `json:"notification_id"`
	RecipientID    string `json:"recipient_id"`
	SenderID       string `json:"sender_id"`
	Type           string `json:"type"`
	Content        string `json:"content"`
	TargetRef      string `json:"target_ref"`
}
