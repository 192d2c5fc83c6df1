package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var (
	ErrJobType    = errors.New("job has no type")
	ErrJobExpired = errors.New("job expired before enqueue")
)

type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

// RedisProducer pushes room relays onto the ordered relay list and every
// other job onto the priority ZSET read by the worker pool.
type RedisProducer struct {
	Redis *redis.Client
	Now   func() time.Time
}

func NewProducer(rdb *redis.Client) Producer {
	return &RedisProducer{Redis: rdb, Now: time.Now}
}

func (p *RedisProducer) Enqueue(ctx context.Context, job Job) error {
	if job.Type == "" {
		return ErrJobType
	}
	if job.ExpireAt > 0 && p.Now().Unix() > job.ExpireAt {
		return ErrJobExpired
	}

	member, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if Relayed(job.Type) {
		err = p.Redis.RPush(ctx, RelayKey, member).Err()
	} else {
		err = p.Redis.ZAdd(ctx, QueueKey, redis.Z{
			Score:  Score(job.CreatedAt, job.Priority),
			Member: member,
		}).Err()
	}
	if err != nil {
		return err
	}

	log.Debug().Str("job_id", job.ID).Str("type", job.Type).Int("priority", job.Priority).Msg("job enqueued")
	return nil
}
