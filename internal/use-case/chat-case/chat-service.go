package chat_service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/media"
	chat_repo "github.com/xenn00/social-chat/internal/repo/chat"
	membership_service "github.com/xenn00/social-chat/internal/use-case/membership-case"
	user_service "github.com/xenn00/social-chat/internal/use-case/user-case"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type ChatService struct {
	Repo    chat_repo.ConversationRepoContract
	Guard   membership_service.GuardContract
	Users   user_service.UserServiceContract
	Storage media.Storage
	Now     func() time.Time
}

func NewChatService(
	repo chat_repo.ConversationRepoContract,
	guard membership_service.GuardContract,
	users user_service.UserServiceContract,
	storage media.Storage,
) ChatServiceContract {
	return &ChatService{
		Repo:    repo,
		Guard:   guard,
		Users:   users,
		Storage: storage,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// resolve authorizes the actor against ref and loads the conversation.
// Only sends create a missing conversation.
func (c *ChatService) resolve(ctx context.Context, actorID string, ref chat_dto.ConversationRef, create bool) (*entity.Conversation, entity.GroupRole, *app_error.AppError) {
	switch ref.Kind {
	case entity.PrivateConversation:
		if appErr := c.Guard.AuthorizePeer(ctx, actorID, ref.PeerID); appErr != nil {
			return nil, "", appErr
		}
		if create {
			conv, appErr := c.Repo.FindOrCreatePrivate(ctx, actorID, ref.PeerID)
			return conv, "", appErr
		}
		conv, appErr := c.Repo.FindPrivate(ctx, actorID, ref.PeerID)
		return conv, "", appErr

	case entity.GroupConversation:
		role, appErr := c.Guard.AuthorizeGroup(ctx, actorID, ref.GroupID)
		if appErr != nil {
			return nil, "", appErr
		}
		if create {
			conv, appErr := c.Repo.FindOrCreateGroup(ctx, ref.GroupID)
			return conv, role, appErr
		}
		conv, appErr := c.Repo.FindGroup(ctx, ref.GroupID)
		return conv, role, appErr
	}
	return nil, "", app_error.Validation("conversation kind must be private or group", "kind")
}

func parseMessageID(messageID string) (bson.ObjectID, *app_error.AppError) {
	id, err := bson.ObjectIDFromHex(messageID)
	if err != nil {
		return bson.ObjectID{}, app_error.Validation("invalid message id", "messageId")
	}
	return id, nil
}

// ListMessages returns the conversation in insertion order. A conversation
// that was never written to lists as empty.
func (c *ChatService) ListMessages(ctx context.Context, actorID string, ref chat_dto.ConversationRef) ([]chat_dto.MessageResponse, *app_error.AppError) {
	conv, _, appErr := c.resolve(ctx, actorID, ref, false)
	if appErr != nil {
		if app_error.Is(appErr, app_error.KindNotFound) && appErr.Field == "conversation" {
			return []chat_dto.MessageResponse{}, nil
		}
		return nil, appErr
	}

	p := c.presenter(ctx, conv)
	out := make([]chat_dto.MessageResponse, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		out = append(out, p.message(msg))
	}
	return out, nil
}

func (c *ChatService) SendMessage(ctx context.Context, actorID string, ref chat_dto.ConversationRef, in chat_dto.SendInput) (*chat_dto.MessageResponse, *app_error.AppError) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Media) == 0 {
		return nil, app_error.Validation("message must have content or media", "content")
	}

	conv, _, appErr := c.resolve(ctx, actorID, ref, true)
	if appErr != nil {
		return nil, appErr
	}

	msg := &entity.Message{
		ID:        bson.NewObjectID(),
		SenderID:  actorID,
		Content:   content,
		Media:     nonNilMedia(in.Media),
		Reactions: []entity.Reaction{},
		CreatedAt: c.Now(),
	}
	msg.ReplyTo = replySnapshot(conv, in.ReplyToID)

	if appErr := c.Repo.AppendMessage(ctx, conv.ID, msg); appErr != nil {
		return nil, appErr
	}
	conv.Append(msg)

	resp := c.presenter(ctx, conv).message(msg)
	return &resp, nil
}

// replySnapshot links a reply to a message of the same conversation. An
// unknown target drops the link instead of failing the send.
func replySnapshot(conv *entity.Conversation, replyToID string) *entity.ReplySnapshot {
	if replyToID == "" {
		return nil
	}
	id, err := bson.ObjectIDFromHex(replyToID)
	if err != nil {
		return nil
	}
	target, ok := conv.Find(id)
	if !ok {
		log.Debug().Str("reply_to", replyToID).Msg("reply target not found, dropping link")
		return nil
	}

	snap := &entity.ReplySnapshot{MessageID: id}
	if conv.IsGroup() {
		snap.Content = target.Content
		snap.SenderID = target.SenderID
	}
	return snap
}

func (c *ChatService) EditMessage(ctx context.Context, actorID string, ref chat_dto.ConversationRef, messageID string, in chat_dto.EditInput) (*chat_dto.MessageResponse, *app_error.AppError) {
	id, appErr := parseMessageID(messageID)
	if appErr != nil {
		return nil, appErr
	}
	conv, _, appErr := c.resolve(ctx, actorID, ref, false)
	if appErr != nil {
		return nil, appErr
	}

	current, ok := conv.Find(id)
	if !ok {
		return nil, app_error.NotFound("message not found", "message")
	}
	if appErr := c.Guard.CanEdit(actorID, current); appErr != nil {
		return nil, appErr
	}

	updated := *current
	if in.Content != nil {
		updated.Content = strings.TrimSpace(*in.Content)
	}
	var dropped []entity.Media
	if in.ReplaceMedia {
		dropped = droppedMedia(current.Media, in.Media)
		updated.Media = nonNilMedia(in.Media)
	}
	if updated.IsEmpty() {
		return nil, app_error.Validation("message must have content or media", "content")
	}

	// private edits replace silently, group edits are flagged
	if conv.IsGroup() {
		editedAt := c.Now()
		updated.Edited = true
		updated.EditedAt = &editedAt
	}

	stored, appErr := c.Repo.ReplaceMessage(ctx, conv.ID, &updated)
	if appErr != nil {
		return nil, appErr
	}
	media.DeleteAll(c.Storage, dropped)

	_ = conv.Replace(stored)
	resp := c.presenter(ctx, conv).message(stored)
	return &resp, nil
}

// droppedMedia returns the attachments of before whose locator is not kept.
func droppedMedia(before, kept []entity.Media) []entity.Media {
	keep := make(map[string]struct{}, len(kept))
	for _, m := range kept {
		keep[m.Locator] = struct{}{}
	}
	var dropped []entity.Media
	for _, m := range before {
		if _, ok := keep[m.Locator]; !ok {
			dropped = append(dropped, m)
		}
	}
	return dropped
}

func (c *ChatService) DeleteMessage(ctx context.Context, actorID string, ref chat_dto.ConversationRef, messageID string) (*chat_dto.DeletedMessageResponse, *app_error.AppError) {
	id, appErr := parseMessageID(messageID)
	if appErr != nil {
		return nil, appErr
	}
	conv, role, appErr := c.resolve(ctx, actorID, ref, false)
	if appErr != nil {
		return nil, appErr
	}

	msg, ok := conv.Find(id)
	if !ok {
		return nil, app_error.NotFound("message not found", "message")
	}
	if appErr := c.Guard.CanDelete(actorID, role, conv, msg); appErr != nil {
		return nil, appErr
	}

	removed, appErr := c.Repo.RemoveMessage(ctx, conv.ID, id)
	if appErr != nil {
		return nil, appErr
	}
	media.DeleteAll(c.Storage, removed.Media)

	return &chat_dto.DeletedMessageResponse{
		ConversationID: conv.ID.Hex(),
		MessageID:      id.Hex(),
	}, nil
}

func (c *ChatService) ToggleReaction(ctx context.Context, actorID string, ref chat_dto.ConversationRef, messageID, value string) (*chat_dto.ReactionsResponse, *app_error.AppError) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, app_error.Validation("reaction is required", "reaction")
	}
	id, appErr := parseMessageID(messageID)
	if appErr != nil {
		return nil, appErr
	}
	conv, _, appErr := c.resolve(ctx, actorID, ref, false)
	if appErr != nil {
		return nil, appErr
	}

	reactions, appErr := c.Repo.ToggleReaction(ctx, conv.ID, id, actorID, value)
	if appErr != nil {
		return nil, appErr
	}

	return &chat_dto.ReactionsResponse{
		ConversationID: conv.ID.Hex(),
		MessageID:      id.Hex(),
		Reactions:      c.presenter(ctx, conv).reactions(reactions),
	}, nil
}

func nonNilMedia(items []entity.Media) []entity.Media {
	if items == nil {
		return []entity.Media{}
	}
	return items
}
