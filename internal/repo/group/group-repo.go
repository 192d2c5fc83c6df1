package group_repo

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"gorm.io/gorm"
)

type GroupRepo struct {
	DB *gorm.DB
}

func NewGroupRepo(db *gorm.DB) GroupRepoContract {
	return &GroupRepo{
		DB: db,
	}
}

// FindRoster returns the group with its members and their roles. The roster
// is owned by the groups module; this repo only reads it.
func (r *GroupRepo) FindRoster(ctx context.Context, groupID string) (*entity.GroupRoster, *app_error.AppError) {
	var group entity.Group
	if err := r.DB.WithContext(ctx).Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("group not found", "group")
		}
		log.Error().Err(err).Str("group_id", groupID).Msg("failed to fetch group")
		return nil, app_error.Internal("failed to fetch group", "db-error")
	}

	var members []entity.GroupMember
	if err := r.DB.WithContext(ctx).Where("group_id = ?", groupID).Find(&members).Error; err != nil {
		log.Error().Err(err).Str("group_id", groupID).Msg("failed to fetch group members")
		return nil, app_error.Internal("failed to fetch group members", "db-error")
	}

	return &entity.GroupRoster{
		Group:   group,
		Members: members,
	}, nil
}
