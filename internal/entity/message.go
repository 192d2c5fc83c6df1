package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaFile  MediaKind = "file"
)

type Media struct {
	Kind        MediaKind `bson:"kind" json:"kind"`
	Locator     string    `bson:"locator" json:"locator"`
	DisplayName string    `bson:"displayName" json:"displayName"`
}

// ReplySnapshot references another message of the same conversation.
// Group conversations fill Content and SenderID at send time so the preview
// outlives the referenced message; private ones keep only MessageID.
type ReplySnapshot struct {
	MessageID bson.ObjectID `bson:"messageId"`
	Content   string        `bson:"content,omitempty"`
	SenderID  string        `bson:"senderId,omitempty"`
}

type Reaction struct {
	UserID    string    `bson:"userId" json:"userId"`
	Value     string    `bson:"value" json:"reaction"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Message struct {
	ID        bson.ObjectID  `bson:"_id"`
	SenderID  string         `bson:"senderId"`
	Content   string         `bson:"content"`
	Media     []Media        `bson:"media"`
	ReplyTo   *ReplySnapshot `bson:"replyTo,omitempty"`
	Edited    bool           `bson:"edited"`
	EditedAt  *time.Time     `bson:"editedAt,omitempty"`
	Reactions []Reaction     `bson:"reactions"`
	CreatedAt time.Time      `bson:"createdAt"`
}

// IsEmpty reports a message with neither visible text nor attachments.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && len(m.Media) == 0
}

// toggleReaction removes the (user, value) entry when present and appends it otherwise.
func (m *Message) toggleReaction(userID, value string, at time.Time) {
	for i, r := range m.Reactions {
		if r.UserID == userID && r.Value == value {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return
		}
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Value: value, CreatedAt: at})
}
