package worker_handler

import (
	"context"

	user_service "github.com/xenn00/social-chat/internal/use-case/user-case"
	"github.com/xenn00/social-chat/internal/utils/types"
	worker_service "github.com/xenn00/social-chat/internal/worker/worker-service"
)

// Relayer fans stored messages and room events out to websocket rooms.
type Relayer interface {
	RelayMessage(ctx context.Context, payload types.BroadcastMessagePayload) error
	RelayRoomEvent(ctx context.Context, payload types.RoomEventPayload) error
}

type WorkerHandler struct {
	Relay  Relayer
	Users  user_service.UserServiceContract
	Mailer worker_service.Mailer
}

func NewWorkerHandler(relay Relayer, users user_service.UserServiceContract, mailer worker_service.Mailer) *WorkerHandler {
	return &WorkerHandler{
		Relay:  relay,
		Users:  users,
		Mailer: mailer,
	}
}
