package user_repo

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"gorm.io/gorm"
)

type UserRepo struct {
	DB *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepoContract {
	return &UserRepo{
		DB: db,
	}
}

func (r *UserRepo) FindUserByID(ctx context.Context, userID string) (*entity.User, *app_error.AppError) {
	var user entity.User

	if err := r.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("cannot find user", "user-id")
		}
		log.Error().Err(err).Str("user_id", userID).Msg("failed to fetch user")
		return nil, app_error.Internal("unexpected error occur when fetch user", "db-error")
	}

	return &user, nil
}

func (r *UserRepo) FindUsersByIDs(ctx context.Context, userIDs []string) ([]entity.User, *app_error.AppError) {
	var users []entity.User
	if len(userIDs) == 0 {
		return users, nil
	}

	if err := r.DB.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		log.Error().Err(err).Int("count", len(userIDs)).Msg("failed to fetch users")
		return nil, app_error.Internal("unexpected error occur when fetch users", "db-error")
	}

	return users, nil
}
