package user_service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	user_repo "github.com/xenn00/social-chat/internal/repo/user"
	"github.com/xenn00/social-chat/internal/utils"
)

const displayCacheTTL = 10 * time.Minute

type UserService struct {
	Redis    *redis.Client
	UserRepo user_repo.UserRepoContract
}

func NewUserService(rdb *redis.Client, repo user_repo.UserRepoContract) UserServiceContract {
	return &UserService{
		Redis:    rdb,
		UserRepo: repo,
	}
}

func displayCacheKey(userID string) string {
	return "user:display:" + userID
}

// Display resolves the public profile shown next to messages.
func (s *UserService) Display(ctx context.Context, userID string) (*entity.UserDisplay, *app_error.AppError) {
	return utils.Remember(ctx, s.Redis, displayCacheKey(userID), displayCacheTTL, func(ctx context.Context) (*entity.UserDisplay, *app_error.AppError) {
		user, appErr := s.UserRepo.FindUserByID(ctx, userID)
		if appErr != nil {
			return nil, appErr
		}
		return &entity.UserDisplay{
			ID:        user.ID,
			Username:  user.Username,
			AvatarURL: user.AvatarURL,
		}, nil
	})
}

// Contact returns the full user record, used for offline mail delivery.
func (s *UserService) Contact(ctx context.Context, userID string) (*entity.User, *app_error.AppError) {
	return s.UserRepo.FindUserByID(ctx, userID)
}
