package group_repo

import (
	"context"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

type GroupRepoContract interface {
	FindRoster(ctx context.Context, groupID string) (*entity.GroupRoster, *app_error.AppError)
}
