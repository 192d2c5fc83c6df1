package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/entity"
	"github.com/xenn00/social-chat/internal/queue"
	dlq_repo "github.com/xenn00/social-chat/internal/repo/dlq"
)

const (
	dlqPopTimeout = 10 * time.Second
	dlqRetention  = 7 * 24 * time.Hour
)

// StartDLQWorker moves dead jobs from the Redis DLQ list into the DLQ store,
// where the retry consumer picks them up.
func (wp *WorkerPool) StartDLQWorker(ctx context.Context) {
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()

		log.Info().Msg("DLQ worker started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("DLQ worker stopping")
				return
			default:
			}

			result, err := wp.Redis.BLPop(ctx, dlqPopTimeout, queue.DLQKey).Result()
			if errors.Is(err, redis.Nil) {
				continue
			} else if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Msg("DLQWorker pop failed")
					wp.sleep(ctx, pollInterval)
				}
				continue
			}

			wp.persistDead(ctx, result[1])
		}
	}()
}

func (wp *WorkerPool) persistDead(ctx context.Context, payload string) {
	var job queue.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		log.Warn().Err(err).Msg("DLQWorker invalid job payload")
		return
	}

	log.Error().
		Str("job_id", job.ID).
		Str("type", job.Type).
		Str("error", job.ErrorMsg).
		Msg("🚨 DLQ Job detected")

	now := wp.Now().UTC()
	dlqDoc := &entity.DLQJob{
		JobID:              job.ID,
		Type:               job.Type,
		Payload:            json.RawMessage(payload),
		Status:             dlq_repo.StatusPending,
		RetryCount:         0,
		OriginalRetryCount: job.Retry,
		ErrorMsg:           job.ErrorMsg,
		CreatedAt:          now,
		UpdatedAt:          now,
		ExpireAt:           now.Add(dlqRetention),
	}

	if appErr := wp.DLQ.Insert(ctx, dlqDoc); appErr != nil {
		// fallback: put back to Redis DLQ
		if err := wp.Redis.RPush(context.Background(), queue.DLQKey, payload).Err(); err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Msg("DLQ job lost")
		}
		wp.sleep(ctx, pollInterval)
		return
	}
	log.Info().Str("job_id", job.ID).Msg("DLQ job persisted to MongoDB")
}

func (wp *WorkerPool) GetDLQStats(ctx context.Context) (map[string]int64, error) {
	stats, appErr := wp.DLQ.CountByStatus(ctx)
	if appErr != nil {
		return nil, appErr
	}

	pending, err := wp.Redis.LLen(ctx, queue.DLQKey).Result()
	if err != nil {
		return nil, err
	}
	stats["redis_pending"] = pending
	return stats, nil
}
