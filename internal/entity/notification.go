package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type NotificationType string

const (
	NotifyMessage  NotificationType = "message"
	NotifyReaction NotificationType = "reaction"
	NotifyComment  NotificationType = "comment"
)

// NotificationTarget is what a notification points at. Each variant carries
// exactly the reference its type requires.
type NotificationTarget interface {
	Type() NotificationType
	Ref() string
}

type MessageTarget struct {
	ChatRef string
}

func (t MessageTarget) Type() NotificationType { return NotifyMessage }
func (t MessageTarget) Ref() string            { return t.ChatRef }

type ReactionTarget struct {
	PostRef string
}

func (t ReactionTarget) Type() NotificationType { return NotifyReaction }
func (t ReactionTarget) Ref() string            { return t.PostRef }

type CommentTarget struct {
	PostRef string
}

func (t CommentTarget) Type() NotificationType { return NotifyComment }
func (t CommentTarget) Ref() string            { return t.PostRef }

type Notification struct {
	ID          bson.ObjectID    `bson:"_id" json:"id"`
	RecipientID string           `bson:"recipient_id" json:"recipient_id"`
	SenderID    string           `bson:"sender_id" json:"sender_id"`
	Type        NotificationType `bson:"type" json:"type"`
	Content     string           `bson:"content" json:"content"`
	TargetRef   string           `bson:"target_ref" json:"target_ref"`
	Read        bool             `bson:"read" json:"read"`
	CreatedAt   time.Time        `bson:"created_at" json:"created_at"`
}

func NewNotification(recipientID, senderID, content string, target NotificationTarget, now time.Time) *Notification {
	return &Notification{
		ID:          bson.NewObjectID(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        target.Type(),
		Content:     content,
		TargetRef:   target.Ref(),
		CreatedAt:   now,
	}
}
