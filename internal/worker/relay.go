package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/queue"
)

const relayPollTimeout = time.Second

// runRelay drains the relay list on one goroutine, so room events reach
// clients in the order the API produced them. A failed relay falls back to
// the priority set for its retries.
func (wp *WorkerPool) runRelay(ctx context.Context) {
	defer wp.wg.Done()
	log.Info().Msg("Relay consumer started")

	for {
		payload, ok, err := wp.claimRelay(ctx, relayPollTimeout)
		if ctx.Err() != nil {
			if ok {
				wp.returnRelay(payload)
			}
			log.Info().Msg("Relay consumer stopping")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("Relay: failed to pop job")
			wp.sleep(ctx, pollInterval)
			continue
		}
		if ok {
			wp.process(ctx, payload)
		}
	}
}

// claimRelay pops the oldest relay, waiting up to timeout for one.
func (wp *WorkerPool) claimRelay(ctx context.Context, timeout time.Duration) (string, bool, error) {
	result, err := wp.Redis.BLPop(ctx, timeout, queue.RelayKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	// BLPOP answers [key, value]
	if len(result) != 2 {
		return "", false, nil
	}
	return result[1], true, nil
}

// returnRelay puts an unprocessed relay back at the head of the list.
func (wp *WorkerPool) returnRelay(payload string) {
	if err := wp.Redis.LPush(context.Background(), queue.RelayKey, payload).Err(); err != nil {
		log.Error().Err(err).Msg("failed to return relay on shutdown")
	}
}
