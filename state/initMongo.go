package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	mongoConnectTimeout = 10 * time.Second
	mongoMaxPoolSize    = 100
)

// InitMongo connects to the conversation store. Conversations are rewritten
// whole on every mutation, so writes are acknowledged by the primary.
func InitMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo url is empty")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetAppName("social-chat").
		SetMaxPoolSize(mongoMaxPoolSize).
		SetServerSelectionTimeout(mongoConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Msg("MongoDB connection established")
	return client, nil
}
