package user_repo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("CHATAPP_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CHATAPP_TEST_POSTGRES_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}))
	return db
}

func TestFindUserByID(t *testing.T) {
	db := setupDB(t)
	suffix := time.Now().UnixNano()
	user := entity.User{
		ID:        fmt.Sprintf("user-%d", suffix),
		Username:  fmt.Sprintf("alice%d", suffix),
		Email:     fmt.Sprintf("alice%d@example.com", suffix),
		AvatarURL: "https://cdn.example.com/a.png",
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)
	t.Cleanup(func() { db.Where("id = ?", user.ID).Delete(&entity.User{}) })

	repo := NewUserRepo(db)

	found, appErr := repo.FindUserByID(context.Background(), user.ID)
	require.Nil(t, appErr)
	assert.Equal(t, user.Username, found.Username)
	assert.Equal(t, user.AvatarURL, found.AvatarURL)

	users, appErr := repo.FindUsersByIDs(context.Background(), []string{user.ID, "missing"})
	require.Nil(t, appErr)
	assert.Len(t, users, 1)
}

func TestFindUserByID_NotFound(t *testing.T) {
	db := setupDB(t)

	_, appErr := NewUserRepo(db).FindUserByID(context.Background(), "nobody")
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))
}
