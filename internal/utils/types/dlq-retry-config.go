package types

import "time"

// DLQRetryConfig drives the consumer that replays jobs from the DLQ store.
type DLQRetryConfig struct {
	BatchSize     int
	RetryInterval time.Duration
	MaxRetryCount int
	// BackoffFactor multiplies RetryInterval once per failed replay.
	BackoffFactor float64
}

func (c DLQRetryConfig) WithDefaults() DLQRetryConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 30 * time.Second
	}
	if c.MaxRetryCount <= 0 {
		c.MaxRetryCount = 5
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = 2
	}
	return c
}
