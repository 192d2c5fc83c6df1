package worker_handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xenn00/social-chat/internal/utils/types"
)

func (wh *WorkerHandler) HandleBroadcastMessage(ctx context.Context, raw json.RawMessage) error {
	var payload types.BroadcastMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid broadcast payload: %w", err)
	}
	if payload.Message.ID == "" {
		return fmt.Errorf("broadcast payload has no message id")
	}

	return wh.Relay.RelayMessage(ctx, payload)
}

func (wh *WorkerHandler) HandleBroadcastRoomEvent(ctx context.Context, raw json.RawMessage) error {
	var payload types.RoomEventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid room event payload: %w", err)
	}
	if payload.Room == "" || payload.Event == "" {
		return fmt.Errorf("room event payload needs room and event")
	}

	return wh.Relay.RelayRoomEvent(ctx, payload)
}
