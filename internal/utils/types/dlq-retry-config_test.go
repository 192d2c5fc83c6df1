package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDLQRetryConfig_WithDefaults(t *testing.T) {
	cfg := DLQRetryConfig{}.WithDefaults()
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.RetryInterval)
	assert.Equal(t, 5, cfg.MaxRetryCount)
	assert.Equal(t, 2.0, cfg.BackoffFactor)

	custom := DLQRetryConfig{BatchSize: 10, RetryInterval: time.Minute, MaxRetryCount: 3, BackoffFactor: 1.5}.WithDefaults()
	assert.Equal(t, DLQRetryConfig{BatchSize: 10, RetryInterval: time.Minute, MaxRetryCount: 3, BackoffFactor: 1.5}, custom)
}
