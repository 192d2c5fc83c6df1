package notification_service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/entity"
	"github.com/xenn00/social-chat/internal/queue"
	"github.com/xenn00/social-chat/internal/testutil"
)

type presence map[string]bool

func (p presence) IsUserOnline(userID string) bool { return p[userID] }

type recordingProducer struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (p *recordingProducer) Enqueue(ctx context.Context, job queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

func newDispatcher(t *testing.T, rdb *redis.Client) (*Dispatcher, *testutil.MemoryNotificationRepo, *recordingProducer) {
	t.Helper()
	groups := testutil.StaticGroups{}
	groups.AddGroup("g1", map[string]entity.GroupRole{
		"alice": entity.RoleCreator,
		"bob":   entity.RoleMember,
		"carol": entity.RoleMember,
	})
	repo := &testutil.MemoryNotificationRepo{}
	producer := &recordingProducer{}
	d := NewDispatcher(rdb, repo, groups, presence{"bob": true}, producer).(*Dispatcher)
	return d, repo, producer
}

func TestDispatch_DedupWithinWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	d, repo, _ := newDispatcher(t, rdb)
	ctx := context.Background()
	target := entity.MessageTarget{ChatRef: "conv-1"}

	stored, appErr := d.Dispatch(ctx, "bob", "alice", "hi", target)
	require.Nil(t, appErr)
	assert.True(t, stored)

	stored, appErr = d.Dispatch(ctx, "bob", "alice", "hi again", target)
	require.Nil(t, appErr)
	assert.False(t, stored)
	assert.Equal(t, 1, repo.Count())

	// a different target is a different notification
	stored, _ = d.Dispatch(ctx, "bob", "alice", "elsewhere", entity.MessageTarget{ChatRef: "conv-2"})
	assert.True(t, stored)

	mr.FastForward(DedupWindow + time.Second)
	stored, _ = d.Dispatch(ctx, "bob", "alice", "later", target)
	assert.True(t, stored)
	assert.Equal(t, 3, repo.Count())
}

func TestDispatch_FallsBackToStoreWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	d, repo, _ := newDispatcher(t, rdb)
	mr.Close()

	ctx := context.Background()
	target := entity.ReactionTarget{PostRef: "post-1"}

	stored, appErr := d.Dispatch(ctx, "bob", "alice", "liked", target)
	require.Nil(t, appErr)
	assert.True(t, stored)

	stored, appErr = d.Dispatch(ctx, "bob", "alice", "liked", target)
	require.Nil(t, appErr)
	assert.False(t, stored)
	assert.Equal(t, 1, repo.Count())
}

func TestDispatch_MailsOfflineRecipients(t *testing.T) {
	d, _, producer := newDispatcher(t, nil)
	ctx := context.Background()

	_, _ = d.Dispatch(ctx, "bob", "alice", "online", entity.MessageTarget{ChatRef: "c"})
	assert.Equal(t, 0, producer.count())

	_, _ = d.Dispatch(ctx, "carol", "alice", "offline", entity.MessageTarget{ChatRef: "c"})
	require.Equal(t, 1, producer.count())
	assert.Equal(t, queue.JobNotificationEmail, producer.jobs[0].Type)
}

func TestNotifyNewMessage_GroupSkipsSender(t *testing.T) {
	d, repo, _ := newDispatcher(t, nil)

	msg := &chat_dto.MessageResponse{ConversationID: "conv-g1", Content: strings.Repeat("x", 150)}
	d.NotifyNewMessage(context.Background(), "alice", chat_dto.GroupRef("g1"), msg)

	require.Equal(t, 2, repo.Count())
	recipients := []string{repo.Items[0].RecipientID, repo.Items[1].RecipientID}
	assert.ElementsMatch(t, []string{"bob", "carol"}, recipients)
	assert.Equal(t, entity.NotifyMessage, repo.Items[0].Type)
	assert.Equal(t, "conv-g1", repo.Items[0].TargetRef)
	assert.True(t, strings.HasSuffix(repo.Items[0].Content, "..."))
}

func TestNotifyNewMessage_PrivateAttachment(t *testing.T) {
	d, repo, _ := newDispatcher(t, nil)

	d.NotifyNewMessage(context.Background(), "alice", chat_dto.PrivateRef("bob"), &chat_dto.MessageResponse{ConversationID: "conv-1"})

	require.Equal(t, 1, repo.Count())
	assert.Equal(t, "bob", repo.Items[0].RecipientID)
	assert.Equal(t, "sent an attachment", repo.Items[0].Content)
}
