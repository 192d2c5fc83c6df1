package chat_service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/testutil"
	membership_service "github.com/xenn00/social-chat/internal/use-case/membership-case"
	user_service "github.com/xenn00/social-chat/internal/use-case/user-case"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type fixture struct {
	svc     ChatServiceContract
	repo    *testutil.MemoryConversationRepo
	storage *testutil.FakeStorage
}

func newFixture() *fixture {
	users := testutil.NewStaticUsers("alice", "bob", "carol", "dave")
	groups := testutil.StaticGroups{}
	groups.AddGroup("g1", map[string]entity.GroupRole{
		"alice": entity.RoleCreator,
		"bob":   entity.RoleMember,
		"carol": entity.RoleAdmin,
	})

	repo := testutil.NewMemoryConversationRepo()
	storage := testutil.NewFakeStorage()
	svc := NewChatService(
		repo,
		membership_service.NewGuard(users, groups),
		user_service.NewUserService(nil, users),
		storage,
	)
	return &fixture{svc: svc, repo: repo, storage: storage}
}

func image(name string) entity.Media {
	return entity.Media{Kind: entity.MediaImage, Locator: "https://files.example.com/" + name, DisplayName: name}
}

func waitDeleted(t *testing.T, storage *testutil.FakeStorage) string {
	t.Helper()
	select {
	case locator := <-storage.Deleted:
		return locator
	case <-time.After(time.Second):
		t.Fatal("expected a media deletion")
		return ""
	}
}

func TestSendMessage_RejectsEmptyMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, appErr := f.svc.SendMessage(ctx, "alice", chat_dto.PrivateRef("bob"), chat_dto.SendInput{})
	require.NotNil(t, appErr)
	assert.Equal(t, app_error.KindValidation, appErr.Kind)

	_, appErr = f.svc.SendMessage(ctx, "alice", chat_dto.PrivateRef("bob"), chat_dto.SendInput{Content: "   "})
	require.NotNil(t, appErr)
	assert.Equal(t, app_error.KindValidation, appErr.Kind)

	// validation happens before the conversation is created
	_, appErr = f.repo.FindPrivate(ctx, "alice", "bob")
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))
}

func TestSendMessage_MediaOnly(t *testing.T) {
	f := newFixture()

	resp, appErr := f.svc.SendMessage(context.Background(), "alice", chat_dto.PrivateRef("bob"), chat_dto.SendInput{
		Media: []entity.Media{image("a.png")},
	})
	require.Nil(t, appErr)
	assert.Equal(t, "", resp.Content)
	assert.Len(t, resp.Media, 1)
}

func TestSendMessage_CreatesConversationAndLists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sent, appErr := f.svc.SendMessage(ctx, "alice", chat_dto.PrivateRef("bob"), chat_dto.SendInput{Content: "  hi "})
	require.Nil(t, appErr)
	assert.Equal(t, "hi", sent.Content)
	assert.Equal(t, "alice", sent.Sender.ID)
	assert.Equal(t, "alice", sent.Sender.Username)
	assert.Equal(t, "bob", sent.ReceiverID)
	assert.Equal(t, entity.PrivateConversation, sent.Kind)

	listed, appErr := f.svc.ListMessages(ctx, "bob", chat_dto.PrivateRef("alice"))
	require.Nil(t, appErr)
	require.Len(t, listed, 1)
	assert.Equal(t, sent.ID, listed[0].ID)
	assert.Equal(t, sent.ConversationID, listed[0].ConversationID)
	assert.Equal(t, "hi", listed[0].Content)
}

func TestListMessages_MissingConversationIsEmpty(t *testing.T) {
	f := newFixture()

	listed, appErr := f.svc.ListMessages(context.Background(), "alice", chat_dto.PrivateRef("bob"))
	require.Nil(t, appErr)
	assert.Empty(t, listed)

	listed, appErr = f.svc.ListMessages(context.Background(), "alice", chat_dto.GroupRef("g1"))
	require.Nil(t, appErr)
	assert.Empty(t, listed)
}

func TestListMessages_GuardFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, appErr := f.svc.ListMessages(ctx, "alice", chat_dto.PrivateRef("zoe"))
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))

	_, appErr = f.svc.ListMessages(ctx, "dave", chat_dto.GroupRef("g1"))
	assert.True(t, app_error.Is(appErr, app_error.KindForbidden))

	_, appErr = f.svc.SendMessage(ctx, "dave", chat_dto.GroupRef("g1"), chat_dto.SendInput{Content: "let me in"})
	assert.True(t, app_error.Is(appErr, app_error.KindForbidden))

	_, appErr = f.svc.SendMessage(ctx, "alice", chat_dto.GroupRef("missing"), chat_dto.SendInput{Content: "hello"})
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))

	_, appErr = f.svc.SendMessage(ctx, "alice", chat_dto.PrivateRef("alice"), chat_dto.SendInput{Content: "me"})
	assert.True(t, app_error.Is(appErr, app_error.KindValidation))
}

func TestSendMessage_UnknownReplyIsDropped(t *testing.T) {
	f := newFixture()

	resp, appErr := f.svc.SendMessage(context.Background(), "alice", chat_dto.PrivateRef("bob"), chat_dto.SendInput{
		Content:   "reply",
		ReplyToID: bson.NewObjectID().Hex(),
	})
	require.Nil(t, appErr)
	assert.Nil(t, resp.ReplyTo)
}

func TestPrivateReply_ResolvedFromLiveMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ref := chat_dto.PrivateRef("bob")

	first, appErr := f.svc.SendMessage(ctx, "alice", ref, chat_dto.SendInput{Content: "first"})
	require.Nil(t, appErr)
	reply, appErr := f.svc.SendMessage(ctx, "bob", chat_dto.PrivateRef("alice"), chat_dto.SendInput{Content: "answer", ReplyToID: first.ID})
	require.Nil(t, appErr)

	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, "first", reply.ReplyTo.Content)
	assert.Equal(t, "alice", reply.ReplyTo.SenderID)
	assert.True(t, reply.ReplyTo.Available)

	conv, appErr := f.repo.FindPrivate(ctx, "alice", "bob")
	require.Nil(t, appErr)
	require.Len(t, conv.Messages, 2)
	assert.Empty(t, conv.Messages[1].ReplyTo.Content)

	_, appErr = f.svc.DeleteMessage(ctx, "alice", ref, first.ID)
	require.Nil(t, appErr)

	listed, appErr := f.svc.ListMessages(ctx, "alice", ref)
	require.Nil(t, appErr)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].ReplyTo)
	assert.False(t, listed[0].ReplyTo.Available)
	assert.Empty(t, listed[0].ReplyTo.Content)
}

func TestGroupReply_SnapshotSurvivesDeletion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ref := chat_dto.GroupRef("g1")

	original, appErr := f.svc.SendMessage(ctx, "alice", ref, chat_dto.SendInput{Content: "original"})
	require.Nil(t, appErr)
	_, appErr = f.svc.SendMessage(ctx, "bob", ref, chat_dto.SendInput{Content: "replying", ReplyToID: original.ID})
	require.Nil(t, appErr)

	_, appErr = f.svc.DeleteMessage(ctx, "carol", ref, original.ID)
	require.Nil(t, appErr)

	listed, appErr := f.svc.ListMessages(ctx, "bob", ref)
	require.Nil(t, appErr)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].ReplyTo)
	assert.Equal(t, original.ID, listed[0].ReplyTo.MessageID)
	assert.Equal(t, "original", listed[0].ReplyTo.Content)
	assert.Equal(t, "alice", listed[0].ReplyTo.SenderID)
	assert.False(t, listed[0].ReplyTo.Available)
}

func TestEditMessage_Authorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ref := chat_dto.GroupRef("g1")

	sent, appErr := f.svc.SendMessage(ctx, "bob", ref, chat_dto.SendInput{Content: "mine"})
	require.Nil(t, appErr)

	content := "hijacked"
	_, appErr = f.svc.EditMessage(ctx, "carol", ref, sent.ID, chat_dto.EditInput{Content: &content})
	assert.True(t, app_error.Is(appErr, app_error.KindForbidden), "elevated roles cannot edit others")

	_, appErr = f.svc.EditMessage(ctx, "bob", ref, bson.NewObjectID().Hex(), chat_dto.EditInput{Content: &content})
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))

	_, appErr = f.svc.EditMessage(ctx, "bob", ref, "not-an-id", chat_dto.EditInput{Content: &content})
	assert.True(t, app_error.Is(appErr, app_error.KindValidation))
}

func TestEditMessage_GroupIsFlaggedPrivateIsNot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	content := "fixed typo"

	group, appErr := f.svc.SendMessage(ctx, "bob", chat_dto.GroupRef("g1"), chat_dto.SendInput{Content: "typo"})
	require.Nil(t, appErr)
	edited, appErr := f.svc.EditMessage(ctx, "bob", chat_dto.GroupRef("g1"), group.ID, chat_dto.EditInput{Content: &content})
	require.Nil(t, appErr)
	assert.Equal(t, "fixed typo", edited.Content)
	assert.True(t, edited.Edited)
	assert.NotNil(t, edited.EditedAt)
	assert.WithinDuration(t, group.CreatedAt, edited.CreatedAt, time.Millisecond)

	private, appErr := f.svc.SendMessage(ctx, "alice", chat_dto.PrivateRef("bob"), chat_dto.SendInput{Content: "typo"})
	require.Nil(t, appErr)
	edited, appErr = f.svc.EditMessage(ctx, "alice", chat_dto.PrivateRef("bob"), private.ID, chat_dto.EditInput{Content: &content})
	require.Nil(t, appErr)
	assert.Equal(t, "fixed typo", edited.Content)
	assert.False(t, edited.Edited)
	assert.Nil(t, edited.EditedAt)
}

func TestEditMessage_DroppedMediaIsDeleted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ref := chat_dto.PrivateRef("bob")

	sent, appErr := f.svc.SendMessage(ctx, "alice", ref, chat_dto.SendInput{
		Media: []entity.Media{image("keep.png"), image("drop.png")},
	})
	require.Nil(t, appErr)

	edited, appErr := f.svc.EditMessage(ctx, "alice", ref, sent.ID, chat_dto.EditInput{
		Media:        []entity.Media{image("keep.png"), image("new.png")},
		ReplaceMedia: true,
	})
	require.Nil(t, appErr)
	assert.Len(t, edited.Media, 2)
	assert.Equal(t, image("drop.png").Locator, waitDeleted(t, f.storage))

	_, appErr = f.svc.EditMessage(ctx, "alice", ref, sent.ID, chat_dto.EditInput{ReplaceMedia: true})
	assert.True(t, app_error.Is(appErr, app_error.KindValidation), "edit may not leave the message empty")
}

func TestDeleteMessage_Authorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	group := chat_dto.GroupRef("g1")

	first, appErr := f.svc.SendMessage(ctx, "alice", group, chat_dto.SendInput{Content: "one"})
	require.Nil(t, appErr)

	_, appErr = f.svc.DeleteMessage(ctx, "bob", group, first.ID)
	assert.True(t, app_error.Is(appErr, app_error.KindForbidden), "plain member cannot delete others")

	deleted, appErr := f.svc.DeleteMessage(ctx, "carol", group, first.ID)
	require.Nil(t, appErr)
	assert.Equal(t, first.ID, deleted.MessageID)

	_, appErr = f.svc.DeleteMessage(ctx, "carol", group, first.ID)
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))

	private, appErr := f.svc.SendMessage(ctx, "alice", chat_dto.PrivateRef("bob"), chat_dto.SendInput{Content: "dm"})
	require.Nil(t, appErr)
	_, appErr = f.svc.DeleteMessage(ctx, "bob", chat_dto.PrivateRef("alice"), private.ID)
	assert.True(t, app_error.Is(appErr, app_error.KindForbidden))

	_, appErr = f.svc.DeleteMessage(ctx, "alice", chat_dto.PrivateRef("bob"), private.ID)
	assert.Nil(t, appErr)
}

func TestDeleteMessage_RemovesMedia(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ref := chat_dto.PrivateRef("bob")

	sent, appErr := f.svc.SendMessage(ctx, "alice", ref, chat_dto.SendInput{Media: []entity.Media{image("gone.png")}})
	require.Nil(t, appErr)

	_, appErr = f.svc.DeleteMessage(ctx, "alice", ref, sent.ID)
	require.Nil(t, appErr)
	assert.Equal(t, image("gone.png").Locator, waitDeleted(t, f.storage))
}

func TestToggleReaction_IsItsOwnInverse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ref := chat_dto.GroupRef("g1")

	sent, appErr := f.svc.SendMessage(ctx, "alice", ref, chat_dto.SendInput{Content: "react to me"})
	require.Nil(t, appErr)

	added, appErr := f.svc.ToggleReaction(ctx, "bob", ref, sent.ID, "👍")
	require.Nil(t, appErr)
	require.Len(t, added.Reactions, 1)
	assert.Equal(t, "bob", added.Reactions[0].UserID)
	assert.Equal(t, "bob", added.Reactions[0].User.Username)

	removed, appErr := f.svc.ToggleReaction(ctx, "bob", ref, sent.ID, "👍")
	require.Nil(t, appErr)
	assert.Empty(t, removed.Reactions)

	_, appErr = f.svc.ToggleReaction(ctx, "bob", ref, sent.ID, " ")
	assert.True(t, app_error.Is(appErr, app_error.KindValidation))

	_, appErr = f.svc.ToggleReaction(ctx, "bob", ref, bson.NewObjectID().Hex(), "👍")
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))
}
