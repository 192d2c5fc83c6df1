package chat_repo

import (
	"context"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ConversationRepoContract persists conversation aggregates. Every mutation
// loads the aggregate, changes it in memory and writes the whole document back.
type ConversationRepoContract interface {
	EnsureIndexes(ctx context.Context) *app_error.AppError
	FindOrCreatePrivate(ctx context.Context, userA, userB string) (*entity.Conversation, *app_error.AppError)
	FindPrivate(ctx context.Context, userA, userB string) (*entity.Conversation, *app_error.AppError)
	FindOrCreateGroup(ctx context.Context, groupID string) (*entity.Conversation, *app_error.AppError)
	FindGroup(ctx context.Context, groupID string) (*entity.Conversation, *app_error.AppError)
	FindByID(ctx context.Context, id bson.ObjectID) (*entity.Conversation, *app_error.AppError)
	AppendMessage(ctx context.Context, conversationID bson.ObjectID, msg *entity.Message) *app_error.AppError
	ReplaceMessage(ctx context.Context, conversationID bson.ObjectID, msg *entity.Message) (*entity.Message, *app_error.AppError)
	RemoveMessage(ctx context.Context, conversationID, messageID bson.ObjectID) (*entity.Message, *app_error.AppError)
	ToggleReaction(ctx context.Context, conversationID, messageID bson.ObjectID, userID, value string) ([]entity.Reaction, *app_error.AppError)
}
