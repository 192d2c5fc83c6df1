package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	chat_service "github.com/xenn00/social-chat/internal/use-case/chat-case"
	membership_service "github.com/xenn00/social-chat/internal/use-case/membership-case"
	"github.com/xenn00/social-chat/internal/utils/types"
)

// Gateway turns inbound frames into conversation operations and fans the
// results out to rooms.
type Gateway struct {
	Hub     *Hub
	Chat    chat_service.ChatServiceContract
	Guard   membership_service.GuardContract
	Metrics *Metrics
}

func NewGateway(hub *Hub, chat chat_service.ChatServiceContract, guard membership_service.GuardContract, metrics *Metrics) *Gateway {
	return &Gateway{
		Hub:     hub,
		Chat:    chat,
		Guard:   guard,
		Metrics: metrics,
	}
}

// HandleFrame processes one inbound frame. Failures are reported to the
// sending connection only; the connection and its rooms stay as they were.
func (g *Gateway) HandleFrame(ctx context.Context, c *Client, raw []byte) {
	var frame chat_dto.IncomingFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		g.Metrics.event("malformed", "error")
		c.sendError("frame", app_error.Validation("malformed frame", "event"))
		return
	}

	if appErr := g.dispatch(ctx, c, frame); appErr != nil {
		g.Metrics.event(frame.Event, "error")
		log.Debug().Str("event", frame.Event).Str("userID", c.UserID).Str("error", appErr.Message).Msg("ws: event failed")
		c.sendError(frame.Event, appErr)
		return
	}
	g.Metrics.event(frame.Event, "ok")
}

func (g *Gateway) dispatch(ctx context.Context, c *Client, frame chat_dto.IncomingFrame) *app_error.AppError {
	switch frame.Event {
	case EventJoinPrivateRoom:
		var p chat_dto.JoinPrivateRoomPayload
		if appErr := decode(frame.Payload, &p); appErr != nil {
			return appErr
		}
		return g.joinPrivateRoom(ctx, c, p.OtherUserID)

	case EventJoinGroupRoom:
		var p chat_dto.JoinGroupRoomPayload
		if appErr := decode(frame.Payload, &p); appErr != nil {
			return appErr
		}
		return g.joinGroupRoom(ctx, c, p.GroupID)

	case EventLeaveRoom:
		var p chat_dto.LeaveRoomPayload
		if appErr := decode(frame.Payload, &p); appErr != nil {
			return appErr
		}
		if !g.Hub.Leave(p.Room, c) {
			return app_error.NotFound("not a member of room "+p.Room, "room")
		}
		c.SendMessage(OutgoingMessage{Type: EventRoomLeft, RoomID: p.Room, Data: chat_dto.RoomJoinedEvent{Room: p.Room}})
		return nil

	case EventSendPrivateMessage, EventSendGroupMessage:
		var p chat_dto.SendMessagePayload
		if appErr := decode(frame.Payload, &p); appErr != nil {
			return appErr
		}
		ref := chat_dto.PrivateRef(p.ReceiverID)
		if frame.Event == EventSendGroupMessage {
			ref = chat_dto.GroupRef(p.GroupID)
		}
		if p.MessageID != "" {
			return g.relayFromClient(ctx, c, ref, p)
		}
		return g.persistAndBroadcast(ctx, c, ref, p)

	case EventDeleteMessage:
		var p chat_dto.DeleteMessagePayload
		if appErr := decode(frame.Payload, &p); appErr != nil {
			return appErr
		}
		deleted, appErr := g.Chat.DeleteMessage(ctx, c.UserID, p.ConversationRef, p.MessageID)
		if appErr != nil {
			return appErr
		}
		g.BroadcastEvent(p.Room(c.UserID), DeletedEvent(p.ConversationRef), c.UserID, deleted)
		return nil

	case EventToggleReaction:
		var p chat_dto.ToggleReactionPayload
		if appErr := decode(frame.Payload, &p); appErr != nil {
			return appErr
		}
		reactions, appErr := g.Chat.ToggleReaction(ctx, c.UserID, p.ConversationRef, p.MessageID, p.Reaction)
		if appErr != nil {
			return appErr
		}
		g.BroadcastEvent(p.Room(c.UserID), ReactionEvent(p.ConversationRef), c.UserID, reactions)
		return nil
	}

	return app_error.Validation("unknown event: "+frame.Event, "event")
}

func decode(raw []byte, dst any) *app_error.AppError {
	if len(raw) == 0 {
		return app_error.Validation("payload is required", "payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return app_error.Validation("malformed payload", "payload")
	}
	return nil
}

func (g *Gateway) joinPrivateRoom(ctx context.Context, c *Client, otherUserID string) *app_error.AppError {
	if appErr := g.Guard.AuthorizePeer(ctx, c.UserID, otherUserID); appErr != nil {
		return appErr
	}
	room := entity.PrivateRoom(c.UserID, otherUserID)
	g.Hub.Join(room, c)
	c.SendMessage(OutgoingMessage{Type: EventRoomJoined, RoomID: room, Data: chat_dto.RoomJoinedEvent{Room: room}})
	return nil
}

func (g *Gateway) joinGroupRoom(ctx context.Context, c *Client, groupID string) *app_error.AppError {
	if _, appErr := g.Guard.AuthorizeGroup(ctx, c.UserID, groupID); appErr != nil {
		return appErr
	}
	room := entity.GroupRoom(groupID)
	g.Hub.Join(room, c)
	c.SendMessage(OutgoingMessage{Type: EventRoomJoined, RoomID: room, Data: chat_dto.RoomJoinedEvent{Room: room}})
	return nil
}

// persistAndBroadcast handles a genuine real-time send: text only, stored
// through the conversation service, then fanned out.
func (g *Gateway) persistAndBroadcast(ctx context.Context, c *Client, ref chat_dto.ConversationRef, p chat_dto.SendMessagePayload) *app_error.AppError {
	msg, appErr := g.Chat.SendMessage(ctx, c.UserID, ref, chat_dto.SendInput{
		Content:   p.Content,
		ReplyToID: p.ReplyTo,
	})
	if appErr != nil {
		return appErr
	}
	g.relayOnly(c.UserID, ref, msg)
	return nil
}

// relayFromClient re-broadcasts a message a client already stored through
// the HTTP API. The sender is always the connection's own identity.
func (g *Gateway) relayFromClient(ctx context.Context, c *Client, ref chat_dto.ConversationRef, p chat_dto.SendMessagePayload) *app_error.AppError {
	if ref.IsGroup() {
		if _, appErr := g.Guard.AuthorizeGroup(ctx, c.UserID, ref.GroupID); appErr != nil {
			return appErr
		}
	} else if appErr := g.Guard.AuthorizePeer(ctx, c.UserID, ref.PeerID); appErr != nil {
		return appErr
	}

	msg := p.Message
	if msg == nil {
		msg = &chat_dto.MessageResponse{
			Content:   p.Content,
			Media:     []entity.Media{},
			Reactions: []chat_dto.ReactionResponse{},
			CreatedAt: time.Now().UTC(),
		}
	}
	msg.ID = p.MessageID
	msg.Kind = ref.Kind
	msg.Sender = entity.UserDisplay{ID: c.UserID, Username: c.DisplayName}
	if ref.IsGroup() {
		msg.GroupID = ref.GroupID
	} else {
		msg.ReceiverID = ref.PeerID
	}

	g.relayOnly(c.UserID, ref, msg)
	return nil
}

// relayOnly fans an already stored message out to its room. It never
// touches the conversation store.
func (g *Gateway) relayOnly(actorID string, ref chat_dto.ConversationRef, msg *chat_dto.MessageResponse) int {
	event := EventNewMessage
	if ref.IsGroup() {
		event = EventGroupMessage
	}
	return g.BroadcastEvent(ref.Room(actorID), event, actorID, msg)
}

func (g *Gateway) BroadcastEvent(room, event, senderID string, data any) int {
	return g.Hub.BroadcastToRoom(room, OutgoingMessage{
		Type:      event,
		SenderID:  senderID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// RelayMessage delivers a message stored by the HTTP API. Used by the
// broadcast worker.
func (g *Gateway) RelayMessage(ctx context.Context, payload types.BroadcastMessagePayload) error {
	msg := payload.Message
	g.relayOnly(payload.ActorID, payload.Ref, &msg)
	return nil
}

// RelayRoomEvent delivers edit, delete and reaction events produced by the
// HTTP API.
func (g *Gateway) RelayRoomEvent(ctx context.Context, payload types.RoomEventPayload) error {
	g.Hub.BroadcastToRoom(payload.Room, OutgoingMessage{
		Type:      payload.Event,
		SenderID:  payload.SenderID,
		Data:      payload.Data,
		Timestamp: time.Now().Unix(),
	})
	return nil
}

// DeletedEvent names the delete event for a conversation kind.
func DeletedEvent(ref chat_dto.ConversationRef) string {
	if ref.IsGroup() {
		return EventDeleteGroupMessage
	}
	return EventMessageDeleted
}

func ReactionEvent(ref chat_dto.ConversationRef) string {
	if ref.IsGroup() {
		return EventGroupReactionUpdated
	}
	return EventReactionUpdated
}

// UpdatedEvent names the edit event for a conversation kind.
func UpdatedEvent(ref chat_dto.ConversationRef) string {
	if ref.IsGroup() {
		return EventGroupMessageUpdated
	}
	return EventMessageUpdated
}

