package user_service

import (
	"context"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

type UserServiceContract interface {
	Display(ctx context.Context, userID string) (*entity.UserDisplay, *app_error.AppError)
	Contact(ctx context.Context, userID string) (*entity.User, *app_error.AppError)
}
