package worker

import (
	"context"
	"fmt"

	"github.com/xenn00/social-chat/internal/queue"
	worker_handler "github.com/xenn00/social-chat/internal/worker/worker-handler"
)

// Route dispatches jobs by type to the worker handlers.
func Route(wh *worker_handler.WorkerHandler) JobHandler {
	return func(ctx context.Context, job queue.Job) error {
		return HandleJob(ctx, job, wh)
	}
}

func HandleJob(ctx context.Context, job queue.Job, wh *worker_handler.WorkerHandler) error {
	switch job.Type {
	case queue.JobBroadcastPrivateMessage, queue.JobBroadcastGroupMessage:
		return wh.HandleBroadcastMessage(ctx, job.Payload)
	case queue.JobBroadcastRoomEvent:
		return wh.HandleBroadcastRoomEvent(ctx, job.Payload)
	case queue.JobNotificationEmail:
		return wh.HandleNotificationEmail(ctx, job.Payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}
