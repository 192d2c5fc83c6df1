package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newMessage(sender, content string) *Message {
	return &Message{
		ID:        bson.NewObjectID(),
		SenderID:  sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestPairKey_OrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.Equal(t, "alice:bob", PairKey("bob", "alice"))
}

func TestNewPrivateConversation_SortsParticipants(t *testing.T) {
	conv := NewPrivateConversation("zed", "amy", time.Now())

	assert.Equal(t, []string{"amy", "zed"}, conv.Participants)
	assert.True(t, conv.HasParticipant("zed"))
	assert.False(t, conv.HasParticipant("bob"))
	assert.False(t, conv.IsGroup())
}

func TestAppend_KeepsInsertionOrder(t *testing.T) {
	conv := NewGroupConversation("g1", time.Now())
	first := newMessage("a", "one")
	second := newMessage("b", "two")

	conv.Append(first)
	conv.Append(second)

	require.Len(t, conv.Messages, 2)
	assert.Equal(t, first.ID, conv.Messages[0].ID)
	assert.Equal(t, second.ID, conv.Messages[1].ID)
}

func TestReplace_KeepsSenderAndCreatedAt(t *testing.T) {
	conv := NewGroupConversation("g1", time.Now())
	original := newMessage("a", "one")
	conv.Append(original)

	edited := &Message{ID: original.ID, SenderID: "intruder", Content: "changed"}
	require.NoError(t, conv.Replace(edited))

	stored, ok := conv.Find(original.ID)
	require.True(t, ok)
	assert.Equal(t, "a", stored.SenderID)
	assert.Equal(t, "changed", stored.Content)
	assert.Equal(t, original.CreatedAt, stored.CreatedAt)
}

func TestReplace_UnknownMessage(t *testing.T) {
	conv := NewGroupConversation("g1", time.Now())
	err := conv.Replace(newMessage("a", "x"))
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestRemove(t *testing.T) {
	conv := NewGroupConversation("g1", time.Now())
	a, b, c := newMessage("a", "1"), newMessage("a", "2"), newMessage("a", "3")
	conv.Append(a)
	conv.Append(b)
	conv.Append(c)

	removed, err := conv.Remove(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, removed.ID)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, a.ID, conv.Messages[0].ID)
	assert.Equal(t, c.ID, conv.Messages[1].ID)

	_, err = conv.Remove(b.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestToggleReaction_IsItsOwnInverse(t *testing.T) {
	conv := NewGroupConversation("g1", time.Now())
	msg := newMessage("a", "hello")
	msg.Reactions = []Reaction{{UserID: "c", Value: "🔥"}}
	conv.Append(msg)

	after, err := conv.ToggleReaction(msg.ID, "b", "👍", time.Now())
	require.NoError(t, err)
	require.Len(t, after, 2)

	back, err := conv.ToggleReaction(msg.ID, "b", "👍", time.Now())
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "c", back[0].UserID)
	assert.Equal(t, "🔥", back[0].Value)
}

func TestToggleReaction_OneEntryPerUserAndValue(t *testing.T) {
	conv := NewGroupConversation("g1", time.Now())
	msg := newMessage("a", "hello")
	conv.Append(msg)

	_, _ = conv.ToggleReaction(msg.ID, "b", "👍", time.Now())
	reactions, _ := conv.ToggleReaction(msg.ID, "b", "❤️", time.Now())

	assert.Len(t, reactions, 2)

	_, err := conv.ToggleReaction(bson.NewObjectID(), "b", "👍", time.Now())
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestGroupRoster_RoleOf(t *testing.T) {
	roster := GroupRoster{
		Group: Group{ID: "g1"},
		Members: []GroupMember{
			{GroupID: "g1", UserID: "owner", Role: RoleCreator},
			{GroupID: "g1", UserID: "mod", Role: RoleAdmin},
			{GroupID: "g1", UserID: "pleb", Role: RoleMember},
		},
	}

	role, ok := roster.RoleOf("mod")
	assert.True(t, ok)
	assert.True(t, role.Elevated())

	role, _ = roster.RoleOf("pleb")
	assert.False(t, role.Elevated())

	_, ok = roster.RoleOf("stranger")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"owner", "mod", "pleb"}, roster.MemberIDs())
}

func TestNotificationTargets(t *testing.T) {
	n := NewNotification("bob", "alice", "hi", MessageTarget{ChatRef: "c1"}, time.Now())
	assert.Equal(t, NotifyMessage, n.Type)
	assert.Equal(t, "c1", n.TargetRef)

	assert.Equal(t, NotifyReaction, ReactionTarget{PostRef: "p"}.Type())
	assert.Equal(t, NotifyComment, CommentTarget{PostRef: "p"}.Type())
}

func TestRooms(t *testing.T) {
	assert.Equal(t, "private:alice:bob", PrivateRoom("bob", "alice"))
	assert.Equal(t, PrivateRoom("alice", "bob"), PrivateRoom("bob", "alice"))
	assert.Equal(t, "group:g1", GroupRoom("g1"))
}

func TestIndex_ResolvesEveryMessage(t *testing.T) {
	conv := NewPrivateConversation("alice", "bob", time.Now())
	for i := 0; i < 100; i++ {
		conv.Append(newMessage("alice", "m"))
	}

	idx := conv.Index()
	require.Len(t, idx, 100)
	for _, m := range conv.Messages {
		assert.Same(t, m, idx[m.ID])
	}

	_, ok := idx[bson.NewObjectID()]
	assert.False(t, ok)

	found, ok := conv.Find(conv.Messages[42].ID)
	require.True(t, ok)
	assert.Same(t, conv.Messages[42], found)
}
