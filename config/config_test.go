package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetServerConfigDefaults(t *testing.T) {
	cfg := GetServerConfig()

	assert.Equal(t, "social_posts_stream", cfg.Worker.StreamName)
	assert.Equal(t, "sentiment_workers", cfg.Worker.ConsumerGroup)
	assert.Equal(t, 10, cfg.Worker.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Worker.BlockInterval)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
	assert.Equal(t, time.Second, cfg.Worker.RetryBackoff)

	assert.Equal(t, 2.0, cfg.Alert.Threshold)
	assert.Equal(t, 5, cfg.Alert.WindowMinutes)
	assert.Equal(t, 10, cfg.Alert.MinPosts)
	assert.Equal(t, time.Minute, cfg.Alert.CheckInterval)

	assert.Equal(t, 30*time.Second, cfg.Hub.MetricsInterval)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "vader", cfg.SentimentBackend)
}

func TestGetServerConfigOverrides(t *testing.T) {
	t.Setenv("STREAM_NAME", "firehose")
	t.Setenv("WORKER_BATCH_SIZE", "25")
	t.Setenv("WORKER_BLOCK_MS", "250")
	t.Setenv("ALERT_NEGATIVE_RATIO_THRESHOLD", "1.5")
	t.Setenv("ALERT_MIN_POSTS", "3")
	t.Setenv("SENTIMENT_BACKEND", "openai")

	cfg := GetServerConfig()

	assert.Equal(t, "firehose", cfg.Worker.StreamName)
	assert.Equal(t, 25, cfg.Worker.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.BlockInterval)
	assert.Equal(t, 1.5, cfg.Alert.Threshold)
	assert.Equal(t, 3, cfg.Alert.MinPosts)
	assert.Equal(t, "openai", cfg.SentimentBackend)
}

func TestGetServerConfigMalformedValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_BATCH_SIZE", "a lot")
	t.Setenv("ALERT_NEGATIVE_RATIO_THRESHOLD", "high")

	cfg := GetServerConfig()

	assert.Equal(t, 10, cfg.Worker.BatchSize)
	assert.Equal(t, 2.0, cfg.Alert.Threshold)
}

func TestGetProducerConfig(t *testing.T) {
	t.Setenv("POSTS_PER_MINUTE", "120")

	cfg := GetProducerConfig()

	assert.Equal(t, "social_posts_stream", cfg.StreamName)
	assert.Equal(t, 120, cfg.PostsPerMinute)
}
