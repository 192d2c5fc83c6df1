package notification_repo

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

const CollectionName = "notifications"

type NotificationRepo struct {
	Collection *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) NotificationRepoContract {
	return &NotificationRepo{
		Collection: db.Collection(CollectionName),
	}
}

func (r *NotificationRepo) EnsureIndexes(ctx context.Context) *app_error.AppError {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "recipient_id", Value: 1},
			{Key: "sender_id", Value: 1},
			{Key: "type", Value: 1},
			{Key: "target_ref", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("dedup_lookup"),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create notification indexes")
		return app_error.Internal("failed to prepare notification store", "mongo")
	}
	return nil
}

func (r *NotificationRepo) Insert(ctx context.Context, n *entity.Notification) *app_error.AppError {
	if _, err := r.Collection.InsertOne(ctx, n); err != nil {
		log.Error().Err(err).Str("recipient_id", n.RecipientID).Msg("failed to insert notification")
		return app_error.Internal("failed to save notification", "mongo")
	}
	return nil
}

// ExistsSince reports an identical notification (recipient, sender, type,
// target) created at or after since.
func (r *NotificationRepo) ExistsSince(ctx context.Context, n *entity.Notification, since time.Time) (bool, *app_error.AppError) {
	filter := bson.M{
		"recipient_id": n.RecipientID,
		"sender_id":    n.SenderID,
		"type":         n.Type,
		"target_ref":   n.TargetRef,
		"created_at":   bson.M{"$gte": since},
	}

	count, err := r.Collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		log.Error().Err(err).Msg("failed to query recent notifications")
		return false, app_error.Internal("failed to query notifications", "mongo")
	}
	return count > 0, nil
}

func (r *NotificationRepo) PurgeReadBefore(ctx context.Context, before time.Time) (int64, *app_error.AppError) {
	result, err := r.Collection.DeleteMany(ctx, bson.M{
		"read":       true,
		"created_at": bson.M{"$lt": before},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to purge notifications")
		return 0, app_error.Internal("failed to purge notifications", "mongo")
	}
	return result.DeletedCount, nil
}
