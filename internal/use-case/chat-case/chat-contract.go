package chat_service

import (
	"context"

	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

// ChatServiceContract is shared by the HTTP handlers and the websocket
// gateway. The actor is always the authenticated identity.
type ChatServiceContract interface {
	ListMessages(ctx context.Context, actorID string, ref chat_dto.ConversationRef) ([]chat_dto.MessageResponse, *app_error.AppError)
	SendMessage(ctx context.Context, actorID string, ref chat_dto.ConversationRef, in chat_dto.SendInput) (*chat_dto.MessageResponse, *app_error.AppError)
	EditMessage(ctx context.Context, actorID string, ref chat_dto.ConversationRef, messageID string, in chat_dto.EditInput) (*chat_dto.MessageResponse, *app_error.AppError)
	DeleteMessage(ctx context.Context, actorID string, ref chat_dto.ConversationRef, messageID string) (*chat_dto.DeletedMessageResponse, *app_error.AppError)
	ToggleReaction(ctx context.Context, actorID string, ref chat_dto.ConversationRef, messageID, value string) (*chat_dto.ReactionsResponse, *app_error.AppError)
}
