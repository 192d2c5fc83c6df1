package chat_repo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func setupRepo(t *testing.T) *ChatRepo {
	t.Helper()
	uri := os.Getenv("CHATAPP_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("CHATAPP_TEST_MONGO_URL not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("chat_repo_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	repo := NewChatRepo(db).(*ChatRepo)
	require.Nil(t, repo.EnsureIndexes(context.Background()))
	return repo
}

func TestFindOrCreatePrivate_PairOrderIndependent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first, appErr := repo.FindOrCreatePrivate(ctx, "alice", "bob")
	require.Nil(t, appErr)
	second, appErr := repo.FindOrCreatePrivate(ctx, "bob", "alice")
	require.Nil(t, appErr)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"alice", "bob"}, second.Participants)
}

func TestFindOrCreatePrivate_ConcurrentCallersConverge(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]bson.ObjectID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "carol", "dave"
			if i%2 == 1 {
				a, b = b, a
			}
			conv, appErr := repo.FindOrCreatePrivate(ctx, a, b)
			if !assert.Nil(t, appErr) {
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	count, err := repo.Collection.CountDocuments(ctx, bson.M{"pair_key": entity.PairKey("carol", "dave")})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFindPrivate_DoesNotCreate(t *testing.T) {
	repo := setupRepo(t)

	_, appErr := repo.FindPrivate(context.Background(), "erin", "frank")
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))
}

func TestFindOrCreateGroup_OnePerGroup(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first, appErr := repo.FindOrCreateGroup(ctx, "g-1")
	require.Nil(t, appErr)
	second, appErr := repo.FindOrCreateGroup(ctx, "g-1")
	require.Nil(t, appErr)
	other, appErr := repo.FindOrCreateGroup(ctx, "g-2")
	require.Nil(t, appErr)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestMessageLifecycle(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	conv, appErr := repo.FindOrCreateGroup(ctx, "g-life")
	require.Nil(t, appErr)

	msg := &entity.Message{
		ID:        bson.NewObjectID(),
		SenderID:  "alice",
		Content:   "hello",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.Nil(t, repo.AppendMessage(ctx, conv.ID, msg))

	reactions, appErr := repo.ToggleReaction(ctx, conv.ID, msg.ID, "bob", "👍")
	require.Nil(t, appErr)
	assert.Len(t, reactions, 1)

	reactions, appErr = repo.ToggleReaction(ctx, conv.ID, msg.ID, "bob", "👍")
	require.Nil(t, appErr)
	assert.Empty(t, reactions)

	edited := *msg
	edited.Content = "hello again"
	_, appErr = repo.ReplaceMessage(ctx, conv.ID, &edited)
	require.Nil(t, appErr)

	stored, appErr := repo.FindByID(ctx, conv.ID)
	require.Nil(t, appErr)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "hello again", stored.Messages[0].Content)
	assert.Equal(t, "alice", stored.Messages[0].SenderID)

	removed, appErr := repo.RemoveMessage(ctx, conv.ID, msg.ID)
	require.Nil(t, appErr)
	assert.Equal(t, msg.ID, removed.ID)

	_, appErr = repo.RemoveMessage(ctx, conv.ID, msg.ID)
	assert.True(t, app_error.Is(appErr, app_error.KindNotFound))
}
