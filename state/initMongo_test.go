package state

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMongo_EmptyURL(t *testing.T) {
	client, err := InitMongo(context.Background(), "")

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "mongo url is empty")
}

func TestInitMongo_MalformedURL(t *testing.T) {
	client, err := InitMongo(context.Background(), "not-a-mongo-url")

	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestInitMongo_Integration(t *testing.T) {
	uri := os.Getenv("CHATAPP_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("CHATAPP_TEST_MONGO_URL not set")
	}

	client, err := InitMongo(context.Background(), uri)
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	assert.NoError(t, client.Ping(context.Background(), nil))
}
