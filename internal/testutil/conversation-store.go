// Package testutil holds in-memory stand-ins for the Mongo and Postgres
// repositories so services and the gateway can be tested without databases.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryConversationRepo mirrors the Mongo repo: documents are stored as
// BSON so every read hands out a fresh copy, like a decoded document.
type MemoryConversationRepo struct {
	mu   sync.Mutex
	docs map[bson.ObjectID][]byte
	keys map[string]bson.ObjectID

	// Appends counts successful AppendMessage calls.
	Appends int
}

func NewMemoryConversationRepo() *MemoryConversationRepo {
	return &MemoryConversationRepo{
		docs: make(map[bson.ObjectID][]byte),
		keys: make(map[string]bson.ObjectID),
	}
}

func (r *MemoryConversationRepo) EnsureIndexes(ctx context.Context) *app_error.AppError {
	return nil
}

func (r *MemoryConversationRepo) FindOrCreatePrivate(ctx context.Context, userA, userB string) (*entity.Conversation, *app_error.AppError) {
	return r.findOrCreate("pair:"+entity.PairKey(userA, userB), func() *entity.Conversation {
		return entity.NewPrivateConversation(userA, userB, time.Now().UTC())
	})
}

func (r *MemoryConversationRepo) FindPrivate(ctx context.Context, userA, userB string) (*entity.Conversation, *app_error.AppError) {
	return r.findByKey("pair:" + entity.PairKey(userA, userB))
}

func (r *MemoryConversationRepo) FindOrCreateGroup(ctx context.Context, groupID string) (*entity.Conversation, *app_error.AppError) {
	return r.findOrCreate("group:"+groupID, func() *entity.Conversation {
		return entity.NewGroupConversation(groupID, time.Now().UTC())
	})
}

func (r *MemoryConversationRepo) FindGroup(ctx context.Context, groupID string) (*entity.Conversation, *app_error.AppError) {
	return r.findByKey("group:" + groupID)
}

func (r *MemoryConversationRepo) FindByID(ctx context.Context, id bson.ObjectID) (*entity.Conversation, *app_error.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(id)
}

func (r *MemoryConversationRepo) AppendMessage(ctx context.Context, conversationID bson.ObjectID, msg *entity.Message) *app_error.AppError {
	appErr := r.mutate(conversationID, func(conv *entity.Conversation) error {
		conv.Append(msg)
		return nil
	})
	if appErr == nil {
		r.mu.Lock()
		r.Appends++
		r.mu.Unlock()
	}
	return appErr
}

func (r *MemoryConversationRepo) ReplaceMessage(ctx context.Context, conversationID bson.ObjectID, msg *entity.Message) (*entity.Message, *app_error.AppError) {
	if appErr := r.mutate(conversationID, func(conv *entity.Conversation) error {
		return conv.Replace(msg)
	}); appErr != nil {
		return nil, appErr
	}
	return msg, nil
}

func (r *MemoryConversationRepo) RemoveMessage(ctx context.Context, conversationID, messageID bson.ObjectID) (*entity.Message, *app_error.AppError) {
	var removed *entity.Message
	if appErr := r.mutate(conversationID, func(conv *entity.Conversation) error {
		msg, err := conv.Remove(messageID)
		removed = msg
		return err
	}); appErr != nil {
		return nil, appErr
	}
	return removed, nil
}

func (r *MemoryConversationRepo) ToggleReaction(ctx context.Context, conversationID, messageID bson.ObjectID, userID, value string) ([]entity.Reaction, *app_error.AppError) {
	var reactions []entity.Reaction
	if appErr := r.mutate(conversationID, func(conv *entity.Conversation) error {
		updated, err := conv.ToggleReaction(messageID, userID, value, time.Now().UTC())
		reactions = updated
		return err
	}); appErr != nil {
		return nil, appErr
	}
	return reactions, nil
}

// MessageCount returns the number of stored messages in a conversation.
func (r *MemoryConversationRepo) MessageCount(id bson.ObjectID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, appErr := r.load(id)
	if appErr != nil {
		return 0
	}
	return len(conv.Messages)
}

func (r *MemoryConversationRepo) findOrCreate(key string, build func() *entity.Conversation) (*entity.Conversation, *app_error.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.keys[key]; ok {
		return r.load(id)
	}
	conv := build()
	if appErr := r.store(conv); appErr != nil {
		return nil, appErr
	}
	r.keys[key] = conv.ID
	return r.load(conv.ID)
}

func (r *MemoryConversationRepo) findByKey(key string) (*entity.Conversation, *app_error.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.keys[key]
	if !ok {
		return nil, app_error.NotFound("conversation not found", "conversation")
	}
	return r.load(id)
}

func (r *MemoryConversationRepo) mutate(id bson.ObjectID, fn func(conv *entity.Conversation) error) *app_error.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, appErr := r.load(id)
	if appErr != nil {
		return appErr
	}
	if err := fn(conv); err != nil {
		if errors.Is(err, entity.ErrMessageNotFound) {
			return app_error.NotFound("message not found", "message")
		}
		return app_error.Internal(err.Error(), "conversation")
	}
	return r.store(conv)
}

func (r *MemoryConversationRepo) load(id bson.ObjectID) (*entity.Conversation, *app_error.AppError) {
	raw, ok := r.docs[id]
	if !ok {
		return nil, app_error.NotFound("conversation not found", "conversation")
	}
	var conv entity.Conversation
	if err := bson.Unmarshal(raw, &conv); err != nil {
		return nil, app_error.Internal(err.Error(), "bson")
	}
	return &conv, nil
}

func (r *MemoryConversationRepo) store(conv *entity.Conversation) *app_error.AppError {
	raw, err := bson.Marshal(conv)
	if err != nil {
		return app_error.Internal(err.Error(), "bson")
	}
	r.docs[conv.ID] = raw
	return nil
}
