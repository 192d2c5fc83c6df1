package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

// StaticUsers serves users from a fixed map.
type StaticUsers map[string]entity.User

func NewStaticUsers(ids ...string) StaticUsers {
	users := make(StaticUsers, len(ids))
	for _, id := range ids {
		users[id] = entity.User{
			ID:        id,
			Username:  id,
			Email:     id + "@example.com",
			AvatarURL: "https://cdn.example.com/" + id + ".png",
			IsActive:  true,
		}
	}
	return users
}

func (u StaticUsers) FindUserByID(ctx context.Context, userID string) (*entity.User, *app_error.AppError) {
	user, ok := u[userID]
	if !ok {
		return nil, app_error.NotFound("cannot find user", "user-id")
	}
	return &user, nil
}

func (u StaticUsers) FindUsersByIDs(ctx context.Context, userIDs []string) ([]entity.User, *app_error.AppError) {
	users := make([]entity.User, 0, len(userIDs))
	for _, id := range userIDs {
		if user, ok := u[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

// StaticGroups serves group rosters from a fixed map.
type StaticGroups map[string]*entity.GroupRoster

// AddGroup registers a group; members maps user id to role.
func (g StaticGroups) AddGroup(groupID string, members map[string]entity.GroupRole) {
	roster := &entity.GroupRoster{Group: entity.Group{ID: groupID, Name: groupID}}
	for userID, role := range members {
		roster.Members = append(roster.Members, entity.GroupMember{GroupID: groupID, UserID: userID, Role: role})
	}
	g[groupID] = roster
}

func (g StaticGroups) FindRoster(ctx context.Context, groupID string) (*entity.GroupRoster, *app_error.AppError) {
	roster, ok := g[groupID]
	if !ok {
		return nil, app_error.NotFound("group not found", "group")
	}
	return roster, nil
}

// MemoryNotificationRepo keeps notifications in a slice.
type MemoryNotificationRepo struct {
	mu    sync.Mutex
	Items []*entity.Notification
}

func (r *MemoryNotificationRepo) EnsureIndexes(ctx context.Context) *app_error.AppError {
	return nil
}

func (r *MemoryNotificationRepo) Insert(ctx context.Context, n *entity.Notification) *app_error.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Items = append(r.Items, n)
	return nil
}

func (r *MemoryNotificationRepo) ExistsSince(ctx context.Context, n *entity.Notification, since time.Time) (bool, *app_error.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.Items {
		if item.RecipientID == n.RecipientID && item.SenderID == n.SenderID &&
			item.Type == n.Type && item.TargetRef == n.TargetRef && !item.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryNotificationRepo) PurgeReadBefore(ctx context.Context, before time.Time) (int64, *app_error.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.Items[:0]
	var purged int64
	for _, item := range r.Items {
		if item.Read && item.CreatedAt.Before(before) {
			purged++
			continue
		}
		kept = append(kept, item)
	}
	r.Items = kept
	return purged, nil
}

func (r *MemoryNotificationRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Items)
}
