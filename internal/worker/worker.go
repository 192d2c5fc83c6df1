package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/queue"
	dlq_repo "github.com/xenn00/social-chat/internal/repo/dlq"
	"github.com/xenn00/social-chat/internal/utils/types"
)

const (
	pollInterval = time.Second
	retryBase    = 5 * time.Second
)

// JobHandler runs one job. A returned error schedules a retry.
type JobHandler func(ctx context.Context, job queue.Job) error

type WorkerPool struct {
	Redis      *redis.Client
	DLQ        dlq_repo.DLQRepoContract
	DLQConfig  types.DLQRetryConfig
	WorkerNum  int
	JobChannel chan string
	Handler    JobHandler
	Now        func() time.Time
	wg         sync.WaitGroup
}

func NewWorkerPool(redis *redis.Client, dlq dlq_repo.DLQRepoContract, workerNum int, handler JobHandler, dlqConfig types.DLQRetryConfig) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	return &WorkerPool{
		Redis:      redis,
		DLQ:        dlq,
		DLQConfig:  dlqConfig.WithDefaults(),
		WorkerNum:  workerNum,
		JobChannel: make(chan string, 100), // Buffered channel to hold jobs
		Handler:    handler,
		Now:        time.Now,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	log.Info().Msgf("Starting worker pool with %d workers", wp.WorkerNum)

	for i := 0; i < wp.WorkerNum; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	wp.wg.Add(1)
	go wp.runRelay(ctx)

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer close(wp.JobChannel)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping worker pool")
				return
			default:
			}

			payload, ok, err := wp.claimReady(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Msg("Worker: failed to pop job")
				}
				wp.sleep(ctx, pollInterval)
				continue
			}
			if !ok {
				wp.sleep(ctx, pollInterval)
				continue
			}

			select {
			case wp.JobChannel <- payload:
			case <-ctx.Done():
				// hand the claimed job back so it is not lost on shutdown
				wp.requeueRaw(context.Background(), payload)
				return
			}
		}
	}()
}

// claimReady takes the lowest scored job that is ready now. A job belongs to
// the caller only if its ZREM removed it, so concurrent pollers never run the
// same job twice.
func (wp *WorkerPool) claimReady(ctx context.Context) (string, bool, error) {
	maxScore := queue.Score(wp.Now().Unix(), queue.PriorityLow)
	for {
		result, err := wp.Redis.ZRangeByScore(ctx, queue.QueueKey, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    strconv.FormatFloat(maxScore, 'f', -1, 64),
			Offset: 0,
			Count:  1,
		}).Result()
		if err != nil {
			return "", false, err
		}
		if len(result) == 0 {
			return "", false, nil
		}

		removed, err := wp.Redis.ZRem(ctx, queue.QueueKey, result[0]).Result()
		if err != nil {
			return "", false, err
		}
		if removed == 1 {
			return result[0], true, nil
		}
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Info().Msgf("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("Worker %d stopping", id)
			// claimed but unstarted jobs go back to the queue
			for payload := range wp.JobChannel {
				wp.requeueRaw(context.Background(), payload)
			}
			return
		case payload, ok := <-wp.JobChannel:
			if !ok {
				return
			}
			wp.process(ctx, payload)
		}
	}
}

func (wp *WorkerPool) process(ctx context.Context, payload string) {
	var job queue.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		log.Warn().Err(err).Msg("Worker: failed to unmarshal job payload")
		return
	}

	now := wp.Now().Unix()
	if job.ExpireAt > 0 && now > job.ExpireAt {
		log.Warn().Str("job_id", job.ID).Str("type", job.Type).Msg("Worker: job expired before it ran, dropping")
		return
	}

	err := wp.Handler(ctx, job)
	if err == nil {
		return
	}

	job.Retry++
	job.ErrorMsg = err.Error()

	if job.Retry >= job.MaxRetry {
		log.Error().Str("job_id", job.ID).Str("type", job.Type).Msg("Job moved to DLQ")
		dlqBytes, _ := json.Marshal(job)
		if err := wp.Redis.RPush(ctx, queue.DLQKey, dlqBytes).Err(); err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Msg("failed to push job to DLQ")
		}

		// Dead Letter Alert
		sendDLA(job)
		return
	}

	// retry with exponential backoff
	delay := retryBase * time.Duration(1<<job.Retry)
	retryAt := wp.Now().Add(delay).Unix()
	if err := wp.schedule(ctx, job, retryAt); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to reschedule job")
		return
	}
	log.Warn().Str("job_id", job.ID).Str("error", job.ErrorMsg).Msgf("Retrying in %v seconds (%d/%d)", delay.Seconds(), job.Retry, job.MaxRetry)
}

func (wp *WorkerPool) schedule(ctx context.Context, job queue.Job, readyAt int64) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return wp.Redis.ZAdd(ctx, queue.QueueKey, redis.Z{
		Score:  queue.Score(readyAt, job.Priority),
		Member: jobBytes,
	}).Err()
}

func (wp *WorkerPool) requeueRaw(ctx context.Context, payload string) {
	var job queue.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return
	}
	if err := wp.schedule(ctx, job, wp.Now().Unix()); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to requeue job on shutdown")
	}
}

func (wp *WorkerPool) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

var dlaCache = make(map[string]time.Time)
var dlaMu sync.Mutex

// sendDLA logs a dead letter alert at most once per job type every 10 minutes.
func sendDLA(job queue.Job) bool {
	dlaMu.Lock()
	defer dlaMu.Unlock()

	now := time.Now()
	lastAlert, ok := dlaCache[job.Type]
	if ok && now.Sub(lastAlert) < 10*time.Minute {
		return false
	}

	log.Error().Str("job_id", job.ID).Str("type", job.Type).Str("error", job.ErrorMsg).Msg("🚨 Dead Letter Alert: Job failed permanently")

	dlaCache[job.Type] = now
	return true
}

func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
	log.Info().Msg("All workers have stopped")
}
