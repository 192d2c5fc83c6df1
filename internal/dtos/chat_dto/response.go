package chat_dto

import (
	"time"

	"github.com/xenn00/social-chat/internal/entity"
)

type MessageResponse struct {
	ID             string                  `json:"id"`
	ConversationID string                  `json:"conversationId"`
	Kind           entity.ConversationKind `json:"kind"`
	GroupID        string                  `json:"groupId,omitempty"`
	ReceiverID     string                  `json:"receiverId,omitempty"`
	Sender         entity.UserDisplay      `json:"sender"`
	Content        string                  `json:"content"`
	Media          []entity.Media          `json:"media"`
	ReplyTo        *ReplyResponse          `json:"replyTo,omitempty"`
	Edited         bool                    `json:"edited"`
	EditedAt       *time.Time              `json:"editedAt,omitempty"`
	Reactions      []ReactionResponse      `json:"reactions"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// ReplyResponse previews the referenced message. Available is false once the
// referenced message is gone; group replies keep their snapshot regardless.
type ReplyResponse struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content,omitempty"`
	SenderID  string `json:"senderId,omitempty"`
	Available bool   `json:"available"`
}

type ReactionResponse struct {
	UserID    string              `json:"userId"`
	Reaction  string              `json:"reaction"`
	User      *entity.UserDisplay `json:"user,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

type ReactionsResponse struct {
	ConversationID string             `json:"conversationId"`
	MessageID      string             `json:"messageId"`
	Reactions      []ReactionResponse `json:"reactions"`
}

type DeletedMessageResponse struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}
