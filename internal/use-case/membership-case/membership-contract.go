package membership_service

import (
	"context"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

type GuardContract interface {
	AuthorizePeer(ctx context.Context, actorID, peerID string) *app_error.AppError
	AuthorizeGroup(ctx context.Context, actorID, groupID string) (entity.GroupRole, *app_error.AppError)
	AuthorizeConversation(ctx context.Context, actorID string, conv *entity.Conversation) (entity.GroupRole, *app_error.AppError)
	CanEdit(actorID string, msg *entity.Message) *app_error.AppError
	CanDelete(actorID string, role entity.GroupRole, conv *entity.Conversation, msg *entity.Message) *app_error.AppError
}
