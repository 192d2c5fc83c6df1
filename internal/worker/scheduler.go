package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	notification_repo "github.com/xenn00/social-chat/internal/repo/notification"
)

const (
	dlqStatsSchedule = "@every 10m"
	scheduledTimeout = time.Minute
)

type SchedulerConfig struct {
	RetentionSchedule string
	NotificationTTL   time.Duration
}

// NewScheduler registers the periodic maintenance jobs: purging read
// notifications older than NotificationTTL and logging DLQ stats.
func NewScheduler(cfg SchedulerConfig, notifications notification_repo.NotificationRepoContract, wp *WorkerPool) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	if notifications != nil && cfg.NotificationTTL > 0 {
		if _, err := c.AddFunc(cfg.RetentionSchedule, func() {
			PurgeNotifications(context.Background(), notifications, cfg.NotificationTTL, time.Now())
		}); err != nil {
			return nil, err
		}
	}

	if wp != nil {
		if _, err := c.AddFunc(dlqStatsSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), scheduledTimeout)
			defer cancel()
			stats, err := wp.GetDLQStats(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to read DLQ stats")
				return
			}
			log.Info().Interface("stats", stats).Msg("DLQ stats")
		}); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func PurgeNotifications(ctx context.Context, notifications notification_repo.NotificationRepoContract, ttl time.Duration, now time.Time) int64 {
	ctx, cancel := context.WithTimeout(ctx, scheduledTimeout)
	defer cancel()

	deleted, appErr := notifications.PurgeReadBefore(ctx, now.Add(-ttl))
	if appErr != nil {
		log.Error().Str("error", appErr.Message).Msg("notification retention failed")
		return 0
	}
	log.Info().Int64("deleted", deleted).Msg("notification retention completed")
	return deleted
}
