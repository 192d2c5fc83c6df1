package chat_handler

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/queue"
	"github.com/xenn00/social-chat/internal/utils/types"
	"github.com/xenn00/social-chat/internal/websocket"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	broadcastTTL   = time.Minute
	enqueueTimeout = 5 * time.Second
)

var (
	updatedEvent  = websocket.UpdatedEvent
	deletedEvent  = websocket.DeletedEvent
	reactionEvent = websocket.ReactionEvent
)

// broadcastMessage hands a stored message to the relay worker, which sends
// it to the conversation room. The write already succeeded, so failures are
// only logged.
func (h *ChatHandler) broadcastMessage(actorID string, ref chat_dto.ConversationRef, resp *chat_dto.MessageResponse) {
	jobType := queue.JobBroadcastPrivateMessage
	if ref.IsGroup() {
		jobType = queue.JobBroadcastGroupMessage
	}

	job, err := queue.NewJob(jobType, types.BroadcastMessagePayload{
		ActorID: actorID,
		Ref:     ref,
		Message: *resp,
	}, queue.PriorityRealtime, broadcastTTL)
	if err != nil {
		log.Error().Err(err).Str("message_id", resp.ID).Msg("failed to build broadcast job")
		return
	}
	h.enqueue(job, resp.ID)
}

func (h *ChatHandler) broadcastRoomEvent(room, event, actorID string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode room event")
		return
	}

	job, err := queue.NewJob(queue.JobBroadcastRoomEvent, types.RoomEventPayload{
		Room:     room,
		Event:    event,
		SenderID: actorID,
		Data:     raw,
	}, queue.PriorityRealtime, broadcastTTL)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to build room event job")
		return
	}
	h.enqueue(job, "")
}

func (h *ChatHandler) enqueue(job queue.Job, messageID string) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	if err := h.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Str("job_type", job.Type).Msg("Failed to enqueue job")
		return
	}
	log.Info().Str("job_id", job.ID).Str("job_type", job.Type).Str("message_id", messageID).Msg("Broadcast job enqueued successfully")
}
