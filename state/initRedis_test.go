package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := InitRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestInitRedis_Password(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("correctPassword")

	client, err := InitRedis(context.Background(), mr.Addr(), "correctPassword", 0)
	require.NoError(t, err)
	client.Close()

	client, err = InitRedis(context.Background(), mr.Addr(), "wrongpassword", 0)
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestInitRedis_Unreachable(t *testing.T) {
	client, err := InitRedis(context.Background(), "127.0.0.1:16379", "", 0)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestInitRedis_CancelledContext(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, err := InitRedis(ctx, mr.Addr(), "", 0)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestInitRedis_SelectsDB(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := InitRedis(context.Background(), mr.Addr(), "", 5)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "testkey", "testvalue", time.Minute).Err())
	mr.Select(5)
	assert.True(t, mr.Exists("testkey"))
	mr.Select(0)
	assert.False(t, mr.Exists("testkey"))
}
