package config

import (
	"os"
	"strconv"
	"time"
)

// WorkerConfig drives the stream consumer worker.
type WorkerConfig struct {
	StreamName    string
	ConsumerGroup string
	BatchSize     int
	BlockInterval time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
}

// AlertConfig drives the alert monitor.
type AlertConfig struct {
	Threshold     float64
	WindowMinutes int
	MinPosts      int
	CheckInterval time.Duration
}

// HubConfig drives the live fan-out hub.
type HubConfig struct {
	MetricsInterval time.Duration
}

// ServerConfig is everything the core process consumes.
type ServerConfig struct {
	Worker           WorkerConfig
	Alert            AlertConfig
	Hub              HubConfig
	HTTPAddr         string
	SentimentBackend string
}

// ProducerConfig drives the synthetic post producer.
type ProducerConfig struct {
	StreamName     string
	PostsPerMinute int
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Worker: WorkerConfig{
			StreamName:    getEnv("STREAM_NAME", "social_posts_stream"),
			ConsumerGroup: getEnv("CONSUMER_GROUP", "sentiment_workers"),
			BatchSize:     getEnvInt("WORKER_BATCH_SIZE", 10),
			BlockInterval: time.Duration(getEnvInt("WORKER_BLOCK_MS", 5000)) * time.Millisecond,
			MaxRetries:    getEnvInt("WORKER_MAX_RETRIES", 3),
			RetryBackoff:  time.Second,
		},
		Alert: AlertConfig{
			Threshold:     getEnvFloat("ALERT_NEGATIVE_RATIO_THRESHOLD", 2.0),
			WindowMinutes: getEnvInt("ALERT_WINDOW_MINUTES", 5),
			MinPosts:      getEnvInt("ALERT_MIN_POSTS", 10),
			CheckInterval: time.Duration(getEnvInt("ALERT_CHECK_INTERVAL_SECONDS", 60)) * time.Second,
		},
		Hub: HubConfig{
			MetricsInterval: time.Duration(getEnvInt("METRICS_INTERVAL_SECONDS", 30)) * time.Second,
		},
		HTTPAddr:         getEnv("HTTP_ADDR", ":8000"),
		SentimentBackend: getEnv("SENTIMENT_BACKEND", "vader"),
	}
}

func GetProducerConfig() ProducerConfig {
	return ProducerConfig{
		StreamName:     getEnv("STREAM_NAME", "social_posts_stream"),
		PostsPerMinute: getEnvInt("POSTS_PER_MINUTE", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
