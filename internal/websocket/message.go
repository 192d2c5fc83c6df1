package websocket

import (
	"time"

	app_error "github.com/xenn00/social-chat/internal/errors"
)

// Client to server events.
const (
	EventJoinPrivateRoom    = "joinPrivateRoom"
	EventJoinGroupRoom      = "joinGroupRoom"
	EventLeaveRoom          = "leaveRoom"
	EventSendPrivateMessage = "sendPrivateMessage"
	EventSendGroupMessage   = "sendGroupMessage"
	EventDeleteMessage      = "deleteMessage"
	EventToggleReaction     = "toggleReaction"
)

// Server to client events.
const (
	EventNewMessage           = "newMessage"
	EventGroupMessage         = "groupMessage"
	EventMessageUpdated       = "messageUpdated"
	EventGroupMessageUpdated  = "groupMessageUpdated"
	EventMessageDeleted       = "messageDeleted"
	EventDeleteGroupMessage   = "deleteGroupMessage"
	EventReactionUpdated      = "reactionUpdated"
	EventGroupReactionUpdated = "groupReactionUpdated"
	EventRoomJoined           = "roomJoined"
	EventRoomLeft             = "roomLeft"
	EventUserStatus           = "userStatus"
	EventSystem               = "system"
	EventError                = "error"
)

type OutgoingMessage struct {
	Type      string `json:"event"`
	RoomID    string `json:"room,omitempty"`
	SenderID  string `json:"senderId,omitempty"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type ErrorData struct {
	Source  string `json:"source"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func NewSystemMessage(roomID, content string, data map[string]any) OutgoingMessage {
	if data == nil {
		data = map[string]any{}
	}
	data["content"] = content
	return OutgoingMessage{
		Type:      EventSystem,
		RoomID:    roomID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// NewErrorMessage reports a failed event to the connection that sent it.
func NewErrorMessage(source string, appErr *app_error.AppError) OutgoingMessage {
	return OutgoingMessage{
		Type: EventError,
		Data: ErrorData{
			Source:  source,
			Kind:    string(appErr.Kind),
			Message: appErr.Message,
		},
		Timestamp: time.Now().Unix(),
	}
}
