package worker

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/entity"
	"github.com/xenn00/social-chat/internal/queue"
)

const dlqAttemptTimeout = 30 * time.Second

// StartDLQRetryConsumer replays stored dead jobs every RetryInterval until
// they succeed or exhaust MaxRetryCount.
func (wp *WorkerPool) StartDLQRetryConsumer(ctx context.Context) {
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()

		ticker := time.NewTicker(wp.DLQConfig.RetryInterval)
		defer ticker.Stop()
		log.Info().Dur("interval", wp.DLQConfig.RetryInterval).Msg("DLQ retry consumer started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("DLQ retry consumer stopping")
				return
			case <-ticker.C:
				if recovered, failed := wp.processDLQJobs(ctx); recovered+failed > 0 {
					log.Info().Int("recovered", recovered).Int("failed", failed).Msg("DLQ retry pass finished")
				}
			}
		}
	}()
}

func (wp *WorkerPool) processDLQJobs(ctx context.Context) (recovered, failed int) {
	ready, appErr := wp.DLQ.FindReady(ctx, wp.DLQConfig.MaxRetryCount, wp.DLQConfig.BatchSize, wp.Now())
	if appErr != nil {
		log.Error().Str("error", appErr.Message).Msg("failed to load DLQ jobs")
		return 0, 0
	}

	for i := range ready {
		if ctx.Err() != nil {
			break
		}
		if wp.retryDLQJob(ctx, &ready[i]) {
			recovered++
		} else {
			failed++
		}
	}
	return recovered, failed
}

// retryDLQJob runs a stored job directly, outside the queue. Its queue
// expiry is ignored because every stored job has already outlived it; the
// broadcast jobs it carries are keyed by message id and safe to replay.
func (wp *WorkerPool) retryDLQJob(ctx context.Context, dead *entity.DLQJob) bool {
	if appErr := wp.DLQ.MarkProcessing(ctx, dead.ID); appErr != nil {
		return false
	}

	var job queue.Job
	if err := json.Unmarshal(dead.Payload, &job); err != nil {
		log.Error().Err(err).Str("job_id", dead.JobID).Msg("stored DLQ job is unreadable")
		wp.DLQ.MarkFailed(ctx, dead.ID, "invalid_payload", err.Error())
		return false
	}
	job.Retry = 0
	job.ErrorMsg = ""

	attemptCtx, cancel := context.WithTimeout(ctx, dlqAttemptTimeout)
	err := wp.Handler(attemptCtx, job)
	cancel()
	if err != nil {
		wp.handleDLQRetryFailure(ctx, dead, err.Error())
		return false
	}

	wp.DLQ.MarkCompleted(ctx, dead.ID)
	log.Info().Str("job_id", dead.JobID).Str("type", dead.Type).Int("dlq_retry_count", dead.RetryCount).Msg("DLQ job recovered")
	return true
}

func (wp *WorkerPool) handleDLQRetryFailure(ctx context.Context, dead *entity.DLQJob, errorMsg string) {
	attempts := dead.RetryCount + 1
	logger := log.With().Str("job_id", dead.JobID).Str("type", dead.Type).Int("dlq_retry_count", attempts).Logger()

	if attempts >= wp.DLQConfig.MaxRetryCount {
		wp.DLQ.MarkPermanentlyFailed(ctx, dead.ID, errorMsg)
		logger.Error().Str("error", errorMsg).Msg("DLQ job permanently failed")
		return
	}

	next := wp.Now().UTC().Add(wp.dlqBackoff(attempts))
	if appErr := wp.DLQ.MarkRetry(ctx, dead.ID, attempts, next, errorMsg); appErr != nil {
		return
	}
	logger.Warn().Time("next_retry_at", next).Msg("DLQ job rescheduled")
}

// dlqBackoff is RetryInterval * BackoffFactor^retry.
func (wp *WorkerPool) dlqBackoff(retry int) time.Duration {
	return time.Duration(float64(wp.DLQConfig.RetryInterval) * math.Pow(wp.DLQConfig.BackoffFactor, float64(retry)))
}
