package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/social-chat/internal/queue"
	"github.com/xenn00/social-chat/internal/utils/types"
)

func relayJob(t *testing.T, jobType string, createdAt time.Time) queue.Job {
	t.Helper()
	var payload any = types.RoomEventPayload{Room: "private:alice:bob", Event: "messageDeleted"}
	if jobType != queue.JobBroadcastRoomEvent {
		payload = types.BroadcastMessagePayload{ActorID: "alice"}
	}
	job, err := queue.NewJob(jobType, payload, queue.PriorityRealtime, time.Minute)
	require.NoError(t, err)
	job.CreatedAt = createdAt.Unix()
	return job
}

func TestClaimRelay_SendBeforeDeleteInSameSecond(t *testing.T) {
	f := newPool(t, newRecorder(nil).handle)
	ctx := context.Background()

	var want []string
	for i := 0; i < 50; i++ {
		sent := relayJob(t, queue.JobBroadcastPrivateMessage, f.now)
		deleted := relayJob(t, queue.JobBroadcastRoomEvent, f.now)
		f.enqueue(t, sent)
		f.enqueue(t, deleted)
		want = append(want, sent.ID, deleted.ID)
	}

	var got []string
	for {
		payload, ok, err := f.pool.claimRelay(ctx, 10*time.Millisecond)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, decodeJob(t, payload).ID)
	}
	assert.Equal(t, want, got)

	// relays never enter the concurrent priority set
	_, ok, err := f.pool.claimReady(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWorkerPool_RelaysRunInOrder(t *testing.T) {
	rec := newRecorder(nil)
	f := newPool(t, rec.handle)
	f.pool.Now = time.Now

	var want []string
	for i := 0; i < 5; i++ {
		job := relayJob(t, queue.JobBroadcastRoomEvent, time.Now())
		f.enqueue(t, job)
		want = append(want, job.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.pool.Start(ctx)

	var got []string
	for len(got) < len(want) {
		select {
		case job := <-rec.seen:
			got = append(got, job.ID)
		case <-time.After(3 * time.Second):
			t.Fatal("relays were not processed")
		}
	}

	cancel()
	f.pool.Wait()
	assert.Equal(t, want, got)
}

func TestProcess_FailedRelayRetriesThroughPrioritySet(t *testing.T) {
	f := newPool(t, newRecorder(errors.New("hub closed")).handle)
	ctx := context.Background()

	job := relayJob(t, queue.JobBroadcastGroupMessage, f.now)
	f.pool.process(ctx, string(queue.MustMarshal(job)))

	queued, err := f.rdb.ZCard(ctx, queue.QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)
}
