package dlq_repo

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const CollectionName = "dlq_jobs"

type DLQRepo struct {
	Collection *mongo.Collection
}

func NewDLQRepo(db *mongo.Database, collection string) DLQRepoContract {
	if collection == "" {
		collection = CollectionName
	}
	return &DLQRepo{
		Collection: db.Collection(collection),
	}
}

func (r *DLQRepo) EnsureIndexes(ctx context.Context) *app_error.AppError {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("status_created"),
		},
		{
			// documents are dropped once expired_at passes
			Keys:    bson.D{{Key: "expired_at", Value: 1}},
			Options: options.Index().SetName("expire_ttl").SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create dlq indexes")
		return app_error.Internal("failed to prepare dlq store", "mongo")
	}
	return nil
}

func (r *DLQRepo) Insert(ctx context.Context, job *entity.DLQJob) *app_error.AppError {
	if job.ID.IsZero() {
		job.ID = bson.NewObjectID()
	}
	if _, err := r.Collection.InsertOne(ctx, job); err != nil {
		log.Error().Err(err).Str("job_id", job.JobID).Msg("failed to persist dlq job")
		return app_error.Internal("failed to persist dlq job", "mongo")
	}
	return nil
}

func (r *DLQRepo) FindReady(ctx context.Context, maxRetry, limit int, now time.Time) ([]entity.DLQJob, *app_error.AppError) {
	filter := bson.M{
		"status":      bson.M{"$in": []string{StatusPending, StatusFailed}},
		"retry_count": bson.M{"$lt": maxRetry},
		"$or": []bson.M{
			{"next_retry_at": bson.M{"$exists": false}},
			{"next_retry_at": bson.M{"$lte": now.UTC()}},
		},
	}
	opts := options.Find().SetSort(bson.M{"created_at": 1}).SetLimit(int64(limit))

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		log.Error().Err(err).Msg("failed to query dlq jobs")
		return nil, app_error.Internal("failed to query dlq jobs", "mongo")
	}
	defer cursor.Close(ctx)

	var jobs []entity.DLQJob
	if err := cursor.All(ctx, &jobs); err != nil {
		log.Error().Err(err).Msg("failed to decode dlq jobs")
		return nil, app_error.Internal("failed to decode dlq jobs", "mongo")
	}
	return jobs, nil
}

func (r *DLQRepo) MarkProcessing(ctx context.Context, id bson.ObjectID) *app_error.AppError {
	return r.set(ctx, id, bson.M{"status": StatusProcessing})
}

func (r *DLQRepo) MarkCompleted(ctx context.Context, id bson.ObjectID) *app_error.AppError {
	return r.set(ctx, id, bson.M{
		"status":       StatusCompleted,
		"completed_at": time.Now().UTC(),
	})
}

func (r *DLQRepo) MarkRetry(ctx context.Context, id bson.ObjectID, retryCount int, nextRetryAt time.Time, errorMsg string) *app_error.AppError {
	return r.set(ctx, id, bson.M{
		"status":        StatusFailed,
		"retry_count":   retryCount,
		"error_msg":     errorMsg,
		"next_retry_at": nextRetryAt.UTC(),
	})
}

func (r *DLQRepo) MarkFailed(ctx context.Context, id bson.ObjectID, reason, errorMsg string) *app_error.AppError {
	return r.set(ctx, id, bson.M{
		"status":    StatusFailed,
		"reason":    reason,
		"error_msg": errorMsg,
	})
}

func (r *DLQRepo) MarkPermanentlyFailed(ctx context.Context, id bson.ObjectID, errorMsg string) *app_error.AppError {
	return r.set(ctx, id, bson.M{
		"status":    StatusPermanentlyFailed,
		"error_msg": errorMsg,
		"failed_at": time.Now().UTC(),
	})
}

func (r *DLQRepo) CountByStatus(ctx context.Context) (map[string]int64, *app_error.AppError) {
	pipeline := bson.A{
		bson.M{"$group": bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		log.Error().Err(err).Msg("failed to aggregate dlq stats")
		return nil, app_error.Internal("failed to read dlq stats", "mongo")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, app_error.Internal("failed to decode dlq stats", "mongo")
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Status] = row.Count
	}
	return stats, nil
}

func (r *DLQRepo) set(ctx context.Context, id bson.ObjectID, fields bson.M) *app_error.AppError {
	fields["updated_at"] = time.Now().UTC()
	if _, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields}); err != nil {
		log.Error().Err(err).Str("id", id.Hex()).Msg("failed to update dlq job")
		return app_error.Internal("failed to update dlq job", "mongo")
	}
	return nil
}
