package user_repo

import (
	"context"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

type UserRepoContract interface {
	FindUserByID(ctx context.Context, userID string) (*entity.User, *app_error.AppError)
	FindUsersByIDs(ctx context.Context, userIDs []string) ([]entity.User, *app_error.AppError)
}
