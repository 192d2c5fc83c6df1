package state

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/config"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

type JwtSecret struct {
	Public *rsa.PublicKey
}

type AppState struct {
	Ctx           context.Context
	Cancel        context.CancelFunc
	DB            *gorm.DB
	Redis         *redis.Client
	Mongo         *mongo.Client
	MongoDatabase string
	JwtSecret     *JwtSecret
}

func InitAppState(ctx context.Context, cancel context.CancelFunc) (*AppState, error) {
	dbUrl := config.Conf.DATABASE.Postgres.DSN
	rAddr := config.Conf.DATABASE.Redis.Addr
	rPass := config.Conf.DATABASE.Redis.Password
	rDB := config.Conf.DATABASE.Redis.DB

	db, _, err := InitPostgres(ctx, dbUrl)
	if err != nil {
		return nil, err
	}

	mongoClient, err := InitMongo(ctx, config.Conf.DATABASE.Mongo.Url)
	if err != nil {
		return nil, err
	}

	rdb, err := InitRedis(ctx, rAddr, rPass, rDB)
	if err != nil {
		return nil, err
	}

	jwtSecret, err := InitSecret(config.Conf.JWT.PublicKeyPath)
	if err != nil {
		return nil, err
	}

	return &AppState{
		Ctx:           ctx,
		Cancel:        cancel,
		DB:            db,
		Mongo:         mongoClient,
		MongoDatabase: config.Conf.DATABASE.Mongo.Database,
		Redis:         rdb,
		JwtSecret:     jwtSecret,
	}, nil
}

// MongoDB returns the application database on the shared client.
func (a *AppState) MongoDB() *mongo.Database {
	return a.Mongo.Database(a.MongoDatabase)
}

func (a *AppState) Close() {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			log.Info().Msg("Closing PostgreSQL database connection...")
			sqlDB.Close()
		}
	}

	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		log.Info().Msg("Closing MongoDB client...")
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB client")
		}
	}

	if a.Redis != nil {
		log.Info().Msg("Closing Redis client...")
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis client")
		}
	}
}
