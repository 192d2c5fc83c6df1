package dlq_repo

import (
	"context"
	"time"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	StatusPending           = "pending"
	StatusProcessing        = "processing"
	StatusFailed            = "failed"
	StatusCompleted         = "completed"
	StatusPermanentlyFailed = "permanently_failed"
)

type DLQRepoContract interface {
	EnsureIndexes(ctx context.Context) *app_error.AppError
	Insert(ctx context.Context, job *entity.DLQJob) *app_error.AppError
	// FindReady returns pending or failed jobs below maxRetry whose retry
	// time has passed, oldest first.
	FindReady(ctx context.Context, maxRetry, limit int, now time.Time) ([]entity.DLQJob, *app_error.AppError)
	MarkProcessing(ctx context.Context, id bson.ObjectID) *app_error.AppError
	MarkCompleted(ctx context.Context, id bson.ObjectID) *app_error.AppError
	MarkRetry(ctx context.Context, id bson.ObjectID, retryCount int, nextRetryAt time.Time, errorMsg string) *app_error.AppError
	MarkFailed(ctx context.Context, id bson.ObjectID, reason, errorMsg string) *app_error.AppError
	MarkPermanentlyFailed(ctx context.Context, id bson.ObjectID, errorMsg string) *app_error.AppError
	CountByStatus(ctx context.Context) (map[string]int64, *app_error.AppError)
}
