package notification_service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/queue"
	group_repo "github.com/xenn00/social-chat/internal/repo/group"
	notification_repo "github.com/xenn00/social-chat/internal/repo/notification"
	"github.com/xenn00/social-chat/internal/utils/types"
)

const (
	DedupWindow    = 5 * time.Minute
	previewLength  = 100
	emailJobTTL    = 24 * time.Hour
	dispatchBudget = 10 * time.Second
)

type Dispatcher struct {
	Redis    *redis.Client
	Repo     notification_repo.NotificationRepoContract
	Groups   group_repo.GroupRepoContract
	Presence PresenceChecker
	Producer queue.Producer
	Now      func() time.Time
}

func NewDispatcher(
	rdb *redis.Client,
	repo notification_repo.NotificationRepoContract,
	groups group_repo.GroupRepoContract,
	presence PresenceChecker,
	producer queue.Producer,
) DispatcherContract {
	return &Dispatcher{
		Redis:    rdb,
		Repo:     repo,
		Groups:   groups,
		Presence: presence,
		Producer: producer,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func dedupKey(n *entity.Notification) string {
	return fmt.Sprintf("notif:dedup:%s:%s:%s:%s", n.RecipientID, n.SenderID, n.Type, n.TargetRef)
}

func (d *Dispatcher) Dispatch(ctx context.Context, recipientID, senderID, content string, target entity.NotificationTarget) (bool, *app_error.AppError) {
	n := entity.NewNotification(recipientID, senderID, content, target, d.Now())

	duplicate, appErr := d.isDuplicate(ctx, n)
	if appErr != nil {
		return false, appErr
	}
	if duplicate {
		log.Debug().Str("recipient_id", recipientID).Str("target", n.TargetRef).Msg("notification deduplicated")
		return false, nil
	}

	if appErr := d.Repo.Insert(ctx, n); appErr != nil {
		// free the window so a later attempt is not swallowed
		if d.Redis != nil {
			d.Redis.Del(ctx, dedupKey(n))
		}
		return false, appErr
	}

	d.mailIfOffline(ctx, n)
	return true, nil
}

// isDuplicate claims the dedup window in Redis. When Redis is unavailable
// the notifications collection is queried for the same window instead.
func (d *Dispatcher) isDuplicate(ctx context.Context, n *entity.Notification) (bool, *app_error.AppError) {
	if d.Redis != nil {
		claimed, err := d.Redis.SetNX(ctx, dedupKey(n), n.ID.Hex(), DedupWindow).Result()
		if err == nil {
			return !claimed, nil
		}
		log.Warn().Err(err).Msg("notification dedup window unavailable, falling back to store")
	}
	return d.Repo.ExistsSince(ctx, n, n.CreatedAt.Add(-DedupWindow))
}

func (d *Dispatcher) mailIfOffline(ctx context.Context, n *entity.Notification) {
	if d.Producer == nil || d.Presence == nil || d.Presence.IsUserOnline(n.RecipientID) {
		return
	}

	job, err := queue.NewJob(queue.JobNotificationEmail, types.NotificationEmailPayload{
		NotificationID: n.ID.Hex(),
		RecipientID:    n.RecipientID,
		SenderID:       n.SenderID,
		Type:           string(n.Type),
		Content:        n.Content,
		TargetRef:      n.TargetRef,
	}, queue.PriorityLow, emailJobTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to build notification email job")
		return
	}
	if err := d.Producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("recipient_id", n.RecipientID).Msg("failed to enqueue notification email")
	}
}

// NotifyNewMessage notifies the peer, or every other group member. Failures
// are logged and never returned.
func (d *Dispatcher) NotifyNewMessage(ctx context.Context, actorID string, ref chat_dto.ConversationRef, msg *chat_dto.MessageResponse) {
	recipients, appErr := d.recipients(ctx, actorID, ref)
	if appErr != nil {
		log.Warn().Str("error", appErr.Message).Str("conversation_id", msg.ConversationID).Msg("failed to resolve notification recipients")
		return
	}

	target := entity.MessageTarget{ChatRef: msg.ConversationID}
	content := preview(msg)
	for _, recipientID := range recipients {
		if _, appErr := d.Dispatch(ctx, recipientID, actorID, content, target); appErr != nil {
			log.Warn().Str("error", appErr.Message).Str("recipient_id", recipientID).Msg("failed to dispatch notification")
		}
	}
}

func (d *Dispatcher) NotifyNewMessageAsync(actorID string, ref chat_dto.ConversationRef, msg *chat_dto.MessageResponse) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchBudget)
		defer cancel()
		d.NotifyNewMessage(ctx, actorID, ref, msg)
	}()
}

func (d *Dispatcher) recipients(ctx context.Context, actorID string, ref chat_dto.ConversationRef) ([]string, *app_error.AppError) {
	if !ref.IsGroup() {
		return []string{ref.PeerID}, nil
	}

	roster, appErr := d.Groups.FindRoster(ctx, ref.GroupID)
	if appErr != nil {
		return nil, appErr
	}
	recipients := make([]string, 0, len(roster.Members))
	for _, id := range roster.MemberIDs() {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	return recipients, nil
}

func preview(msg *chat_dto.MessageResponse) string {
	if msg.Content == "" {
		return "sent an attachment"
	}
	runes := []rune(msg.Content)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return msg.Content
}
