package entity

import (
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ConversationKind string

const (
	PrivateConversation ConversationKind = "private"
	GroupConversation   ConversationKind = "group"
)

var ErrMessageNotFound = errors.New("message not found")

type Conversation struct {
	ID           bson.ObjectID    `bson:"_id"`
	Kind         ConversationKind `bson:"kind"`
	Participants []string         `bson:"participants,omitempty"`
	PairKey      string           `bson:"pair_key,omitempty"`
	GroupID      string           `bson:"group_id,omitempty"`
	Messages     []*Message       `bson:"messages"`
	CreatedAt    time.Time        `bson:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at"`
}

// PairKey is the order independent key of a private conversation.
func PairKey(userA, userB string) string {
	pair := SortedPair(userA, userB)
	return pair[0] + ":" + pair[1]
}

func SortedPair(userA, userB string) [2]string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return [2]string{pair[0], pair[1]}
}

func NewPrivateConversation(userA, userB string, now time.Time) *Conversation {
	pair := SortedPair(userA, userB)
	return &Conversation{
		ID:           bson.NewObjectID(),
		Kind:         PrivateConversation,
		Participants: []string{pair[0], pair[1]},
		PairKey:      PairKey(userA, userB),
		Messages:     []*Message{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NewGroupConversation(groupID string, now time.Time) *Conversation {
	return &Conversation{
		ID:        bson.NewObjectID(),
		Kind:      GroupConversation,
		GroupID:   groupID,
		Messages:  []*Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Conversation) IsGroup() bool {
	return c.Kind == GroupConversation
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// MessageIndex resolves message ids of one loaded aggregate. It is a
// snapshot: rebuild it after the aggregate changes.
type MessageIndex map[bson.ObjectID]*Message

// Index builds a lookup for callers resolving many ids, such as reply
// previews while listing.
func (c *Conversation) Index() MessageIndex {
	idx := make(MessageIndex, len(c.Messages))
	for _, m := range c.Messages {
		idx[m.ID] = m
	}
	return idx
}

func (c *Conversation) position(id bson.ObjectID) (int, bool) {
	for i, m := range c.Messages {
		if m.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (c *Conversation) Find(id bson.ObjectID) (*Message, bool) {
	pos, ok := c.position(id)
	if !ok {
		return nil, false
	}
	return c.Messages[pos], true
}

func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = msg.CreatedAt
}

// Replace swaps the stored message with the same id. Sender, id and creation
// time of the stored message are never overwritten.
func (c *Conversation) Replace(msg *Message) error {
	pos, ok := c.position(msg.ID)
	if !ok {
		return ErrMessageNotFound
	}
	stored := c.Messages[pos]
	msg.SenderID = stored.SenderID
	msg.CreatedAt = stored.CreatedAt
	c.Messages[pos] = msg
	return nil
}

func (c *Conversation) Remove(id bson.ObjectID) (*Message, error) {
	pos, ok := c.position(id)
	if !ok {
		return nil, ErrMessageNotFound
	}
	removed := c.Messages[pos]
	c.Messages = append(c.Messages[:pos], c.Messages[pos+1:]...)
	return removed, nil
}

func (c *Conversation) ToggleReaction(id bson.ObjectID, userID, value string, at time.Time) ([]Reaction, error) {
	pos, ok := c.position(id)
	if !ok {
		return nil, ErrMessageNotFound
	}
	msg := c.Messages[pos]
	msg.toggleReaction(userID, value, at)
	return msg.Reactions, nil
}

// PrivateRoom is the websocket room shared by the two participants.
func PrivateRoom(userA, userB string) string {
	return "private:" + PairKey(userA, userB)
}

func GroupRoom(groupID string) string {
	return "group:" + groupID
}
