package notification_service

import (
	"context"

	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

type DispatcherContract interface {
	// Dispatch records one notification unless an identical one was recorded
	// inside the dedup window. It reports whether a notification was stored.
	Dispatch(ctx context.Context, recipientID, senderID, content string, target entity.NotificationTarget) (bool, *app_error.AppError)
	NotifyNewMessage(ctx context.Context, actorID string, ref chat_dto.ConversationRef, msg *chat_dto.MessageResponse)
	NotifyNewMessageAsync(actorID string, ref chat_dto.ConversationRef, msg *chat_dto.MessageResponse)
}

// PresenceChecker reports whether a user has a live websocket connection.
type PresenceChecker interface {
	IsUserOnline(userID string) bool
}
