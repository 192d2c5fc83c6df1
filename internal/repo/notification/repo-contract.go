package notification_repo

import (
	"context"
	"time"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

type NotificationRepoContract interface {
	EnsureIndexes(ctx context.Context) *app_error.AppError
	Insert(ctx context.Context, n *entity.Notification) *app_error.AppError
	ExistsSince(ctx context.Context, n *entity.Notification, since time.Time) (bool, *app_error.AppError)
	PurgeReadBefore(ctx context.Context, before time.Time) (int64, *app_error.AppError)
}
