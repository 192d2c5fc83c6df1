package chat_repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const CollectionName = "conversations"

type ChatRepo struct {
	Collection *mongo.Collection
	Now        func() time.Time
}

func NewChatRepo(db *mongo.Database) ConversationRepoContract {
	return &ChatRepo{
		Collection: db.Collection(CollectionName),
		Now:        time.Now,
	}
}

func (r *ChatRepo) EnsureIndexes(ctx context.Context) *app_error.AppError {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("unique_private_pair"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("unique_group_conversation"),
		},
		{
			Keys: bson.D{{Key: "participants", Value: 1}},
		},
	}

	if _, err := r.Collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error().Err(err).Msg("failed to create conversation indexes")
		return app_error.Internal("failed to prepare conversation store", "mongo")
	}
	return nil
}

func (r *ChatRepo) FindOrCreatePrivate(ctx context.Context, userA, userB string) (*entity.Conversation, *app_error.AppError) {
	return r.findOrCreate(ctx, bson.M{"pair_key": entity.PairKey(userA, userB)}, func() *entity.Conversation {
		return entity.NewPrivateConversation(userA, userB, r.Now().UTC())
	})
}

func (r *ChatRepo) FindPrivate(ctx context.Context, userA, userB string) (*entity.Conversation, *app_error.AppError) {
	return r.findOne(ctx, bson.M{"pair_key": entity.PairKey(userA, userB)})
}

func (r *ChatRepo) FindOrCreateGroup(ctx context.Context, groupID string) (*entity.Conversation, *app_error.AppError) {
	return r.findOrCreate(ctx, bson.M{"group_id": groupID}, func() *entity.Conversation {
		return entity.NewGroupConversation(groupID, r.Now().UTC())
	})
}

func (r *ChatRepo) FindGroup(ctx context.Context, groupID string) (*entity.Conversation, *app_error.AppError) {
	return r.findOne(ctx, bson.M{"group_id": groupID})
}

func (r *ChatRepo) FindByID(ctx context.Context, id bson.ObjectID) (*entity.Conversation, *app_error.AppError) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// findOrCreate inserts a fresh conversation on a miss. A concurrent creator
// for the same key trips the unique index and both callers converge on the
// stored document.
func (r *ChatRepo) findOrCreate(ctx context.Context, filter bson.M, build func() *entity.Conversation) (*entity.Conversation, *app_error.AppError) {
	conv, appErr := r.findOne(ctx, filter)
	if appErr == nil {
		return conv, nil
	}
	if !app_error.Is(appErr, app_error.KindNotFound) {
		return nil, appErr
	}

	fresh := build()
	if _, err := r.Collection.InsertOne(ctx, fresh); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Debug().Interface("filter", filter).Msg("conversation created concurrently, re-reading")
			return r.findOne(ctx, filter)
		}
		log.Error().Err(err).Msg("failed to create conversation")
		return nil, app_error.Internal("failed to create conversation", "mongo")
	}

	return fresh, nil
}

func (r *ChatRepo) findOne(ctx context.Context, filter bson.M) (*entity.Conversation, *app_error.AppError) {
	var conv entity.Conversation
	if err := r.Collection.FindOne(ctx, filter).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, app_error.NotFound("conversation not found", "conversation")
		}
		log.Error().Err(err).Msg("failed to fetch conversation")
		return nil, app_error.Internal("failed to fetch conversation", "mongo")
	}
	return &conv, nil
}

// mutate is the single read-modify-write path; the write replaces the whole
// document, so concurrent writers to one conversation are last-write-wins.
func (r *ChatRepo) mutate(ctx context.Context, id bson.ObjectID, fn func(conv *entity.Conversation) error) *app_error.AppError {
	conv, appErr := r.FindByID(ctx, id)
	if appErr != nil {
		return appErr
	}

	if err := fn(conv); err != nil {
		if errors.Is(err, entity.ErrMessageNotFound) {
			return app_error.NotFound("message not found", "message")
		}
		return app_error.Internal(err.Error(), "conversation")
	}

	conv.UpdatedAt = r.Now().UTC()
	result, err := r.Collection.ReplaceOne(ctx, bson.M{"_id": id}, conv)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", id.Hex()).Msg("failed to write conversation")
		return app_error.Internal("failed to save conversation", "mongo")
	}
	if result.MatchedCount == 0 {
		return app_error.NotFound("conversation not found", "conversation")
	}
	return nil
}

func (r *ChatRepo) AppendMessage(ctx context.Context, conversationID bson.ObjectID, msg *entity.Message) *app_error.AppError {
	return r.mutate(ctx, conversationID, func(conv *entity.Conversation) error {
		conv.Append(msg)
		return nil
	})
}

func (r *ChatRepo) ReplaceMessage(ctx context.Context, conversationID bson.ObjectID, msg *entity.Message) (*entity.Message, *app_error.AppError) {
	appErr := r.mutate(ctx, conversationID, func(conv *entity.Conversation) error {
		return conv.Replace(msg)
	})
	if appErr != nil {
		return nil, appErr
	}
	return msg, nil
}

func (r *ChatRepo) RemoveMessage(ctx context.Context, conversationID, messageID bson.ObjectID) (*entity.Message, *app_error.AppError) {
	var removed *entity.Message
	appErr := r.mutate(ctx, conversationID, func(conv *entity.Conversation) error {
		msg, err := conv.Remove(messageID)
		removed = msg
		return err
	})
	if appErr != nil {
		return nil, appErr
	}
	return removed, nil
}

func (r *ChatRepo) ToggleReaction(ctx context.Context, conversationID, messageID bson.ObjectID, userID, value string) ([]entity.Reaction, *app_error.AppError) {
	var reactions []entity.Reaction
	appErr := r.mutate(ctx, conversationID, func(conv *entity.Conversation) error {
		updated, err := conv.ToggleReaction(messageID, userID, value, r.Now().UTC())
		reactions = updated
		return err
	})
	if appErr != nil {
		return nil, appErr
	}
	return reactions, nil
}
