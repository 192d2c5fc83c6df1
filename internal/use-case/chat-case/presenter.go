package chat_service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/entity"
)

// presenter turns stored messages into responses, resolving each user's
// display info once per call.
type presenter struct {
	ctx      context.Context
	svc      *ChatService
	conv     *entity.Conversation
	messages entity.MessageIndex
	displays map[string]entity.UserDisplay
}

func (c *ChatService) presenter(ctx context.Context, conv *entity.Conversation) *presenter {
	return &presenter{
		ctx:      ctx,
		svc:      c,
		conv:     conv,
		displays: make(map[string]entity.UserDisplay),
	}
}

func (p *presenter) display(userID string) entity.UserDisplay {
	if d, ok := p.displays[userID]; ok {
		return d
	}
	d := entity.UserDisplay{ID: userID}
	if found, appErr := p.svc.Users.Display(p.ctx, userID); appErr != nil {
		log.Warn().Str("user_id", userID).Str("error", appErr.Message).Msg("failed to resolve user display")
	} else {
		d = *found
	}
	p.displays[userID] = d
	return d
}

func (p *presenter) message(msg *entity.Message) chat_dto.MessageResponse {
	resp := chat_dto.MessageResponse{
		ID:             msg.ID.Hex(),
		ConversationID: p.conv.ID.Hex(),
		Kind:           p.conv.Kind,
		Sender:         p.display(msg.SenderID),
		Content:        msg.Content,
		Media:          nonNilMedia(msg.Media),
		ReplyTo:        p.reply(msg.ReplyTo),
		Edited:         msg.Edited,
		EditedAt:       msg.EditedAt,
		Reactions:      p.reactions(msg.Reactions),
		CreatedAt:      msg.CreatedAt,
	}
	if p.conv.IsGroup() {
		resp.GroupID = p.conv.GroupID
	} else {
		for _, participant := range p.conv.Participants {
			if participant != msg.SenderID {
				resp.ReceiverID = participant
			}
		}
	}
	return resp
}

// reply resolves private previews from the live message; group previews come
// from the stored snapshot and outlive the referenced message.
func (p *presenter) reply(snap *entity.ReplySnapshot) *chat_dto.ReplyResponse {
	if snap == nil {
		return nil
	}
	if p.messages == nil {
		p.messages = p.conv.Index()
	}
	target, found := p.messages[snap.MessageID]
	resp := &chat_dto.ReplyResponse{
		MessageID: snap.MessageID.Hex(),
		Available: found,
	}
	switch {
	case p.conv.IsGroup():
		resp.Content = snap.Content
		resp.SenderID = snap.SenderID
	case found:
		resp.Content = target.Content
		resp.SenderID = target.SenderID
	}
	return resp
}

func (p *presenter) reactions(reactions []entity.Reaction) []chat_dto.ReactionResponse {
	out := make([]chat_dto.ReactionResponse, 0, len(reactions))
	for _, r := range reactions {
		user := p.display(r.UserID)
		out = append(out, chat_dto.ReactionResponse{
			UserID:    r.UserID,
			Reaction:  r.Value,
			User:      &user,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}
