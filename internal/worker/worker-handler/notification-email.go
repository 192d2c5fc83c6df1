package worker_handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/utils/types"
)

// HandleNotificationEmail mails a notification to a recipient who was
// offline when it was recorded. Unknown recipients and users without an
// address are skipped, not retried.
func (wh *WorkerHandler) HandleNotificationEmail(ctx context.Context, raw json.RawMessage) error {
	var payload types.NotificationEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid notification email payload: %w", err)
	}

	if wh.Mailer == nil {
		log.Debug().Str("notification_id", payload.NotificationID).Msg("mailer disabled, skipping notification email")
		return nil
	}

	recipient, appErr := wh.Users.Contact(ctx, payload.RecipientID)
	if appErr != nil {
		if app_error.Is(appErr, app_error.KindNotFound) {
			log.Warn().Str("recipient_id", payload.RecipientID).Msg("notification recipient not found")
			return nil
		}
		return fmt.Errorf("failed to load recipient: %s", appErr.Message)
	}
	if recipient.Email == "" {
		return nil
	}

	senderName := payload.SenderID
	if sender, appErr := wh.Users.Display(ctx, payload.SenderID); appErr == nil && sender.Username != "" {
		senderName = sender.Username
	}

	subject := fmt.Sprintf("New message from %s", senderName)
	body := fmt.Sprintf("Hello %s,\n\n%s: %s\n\nOpen the app to reply.", recipient.Username, senderName, payload.Content)
	if err := wh.Mailer.Send(recipient.Email, subject, body); err != nil {
		return err
	}

	log.Info().Str("notification_id", payload.NotificationID).Str("recipient_id", payload.RecipientID).Msg("notification email sent")
	return nil
}
