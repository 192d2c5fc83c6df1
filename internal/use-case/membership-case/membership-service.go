package membership_service

import (
	"context"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	group_repo "github.com/xenn00/social-chat/internal/repo/group"
	user_repo "github.com/xenn00/social-chat/internal/repo/user"
)

type Guard struct {
	Users  user_repo.UserRepoContract
	Groups group_repo.GroupRepoContract
}

func NewGuard(users user_repo.UserRepoContract, groups group_repo.GroupRepoContract) GuardContract {
	return &Guard{
		Users:  users,
		Groups: groups,
	}
}

// AuthorizePeer validates the other side of a private conversation.
func (g *Guard) AuthorizePeer(ctx context.Context, actorID, peerID string) *app_error.AppError {
	if peerID == "" {
		return app_error.Validation("peer id is required", "peerId")
	}
	if peerID == actorID {
		return app_error.Validation("cannot open a private conversation with yourself", "peerId")
	}
	if _, appErr := g.Users.FindUserByID(ctx, peerID); appErr != nil {
		return appErr
	}
	return nil
}

func (g *Guard) AuthorizeGroup(ctx context.Context, actorID, groupID string) (entity.GroupRole, *app_error.AppError) {
	if groupID == "" {
		return "", app_error.Validation("group id is required", "groupId")
	}

	roster, appErr := g.Groups.FindRoster(ctx, groupID)
	if appErr != nil {
		return "", appErr
	}

	role, ok := roster.RoleOf(actorID)
	if !ok {
		return "", app_error.Forbidden("you are not a member of this group", "group")
	}
	return role, nil
}

func (g *Guard) AuthorizeConversation(ctx context.Context, actorID string, conv *entity.Conversation) (entity.GroupRole, *app_error.AppError) {
	if conv.IsGroup() {
		return g.AuthorizeGroup(ctx, actorID, conv.GroupID)
	}
	if !conv.HasParticipant(actorID) {
		return "", app_error.Forbidden("you are not a participant of this conversation", "conversation")
	}
	return "", nil
}

func (g *Guard) CanEdit(actorID string, msg *entity.Message) *app_error.AppError {
	if msg.SenderID != actorID {
		return app_error.Forbidden("only the sender can edit this message", "message")
	}
	return nil
}

// CanDelete allows the sender, or an admin or creator of the owning group.
func (g *Guard) CanDelete(actorID string, role entity.GroupRole, conv *entity.Conversation, msg *entity.Message) *app_error.AppError {
	if msg.SenderID == actorID {
		return nil
	}
	if conv.IsGroup() && role.Elevated() {
		return nil
	}
	return app_error.Forbidden("you cannot delete this message", "message")
}
