package group_repo

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
	require.NoError(t, db.AutoMigrate(&entity.Group{}, &entity.GroupMember{}))
	return db
}

func TestFindRoster(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	groupID := fmt.Sprintf("grp-%d", time.Now().UnixNano())

	require.NoError(t, db.Create(&entity.Group{ID: groupID, Name: "climbers", CreatedBy: "owner"}).Error)
	require.NoError(t, db.Create(&[]entity.GroupMember{
		{GroupID: groupID, UserID: "owner", Role: entity.RoleCreator},
		{GroupID: groupID, UserID: "member", Role: entity.RoleMember},
	}).Error)
	t.Cleanup(func() {
		db.Where("group_id = ?", groupID).Delete(&entity.GroupMember{})
		db.Where("id = ?", groupID).Delete(&entity.Group{})
	})

	roster, appErr := NewGroupRepo(db).FindRoster(ctx, groupID)
	require.Nil(t, appErr)
	assert.Equal(t, "climbers", roster.Group.Name)
	assert.ElementsMatch(t, []string{"owner", "member"}, roster.MemberIDs())
}

func TestFindRoster_MissingGroup(t *testing.T) {
	db := setupDB(t)

	_, appErr := NewGroupRepo(db).FindRoster(context.Background(), "does-not-exist")
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))
}
