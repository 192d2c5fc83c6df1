package chat_dto

import "encoding/json"

// IncomingFrame is every client frame on the websocket: an event name and
// its event specific payload.
type IncomingFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPrivateRoomPayload struct {
	OtherUserID string `json:"otherUserId"`
}

type JoinGroupRoomPayload struct {
	GroupID string `json:"groupId"`
}

type LeaveRoomPayload struct {
	Room string `json:"room"`
}

// SendMessagePayload is shared by sendPrivateMessage and sendGroupMessage.
// A non-empty MessageID marks a message that is already stored and only
// needs to be relayed.
type SendMessagePayload struct {
	MessageID  string           `json:"messageId,omitempty"`
	ReceiverID string           `json:"receiverId,omitempty"`
	GroupID    string           `json:"groupId,omitempty"`
	Content    string           `json:"content"`
	ReplyTo    string           `json:"replyTo,omitempty"`
	Message    *MessageResponse `json:"message,omitempty"`
}

type DeleteMessagePayload struct {
	ConversationRef
	MessageID string `json:"messageId"`
}

type ToggleReactionPayload struct {
	ConversationRef
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
}
