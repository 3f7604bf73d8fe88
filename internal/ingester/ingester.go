package ingester

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spacesedan/pulselens/config"
)

// StreamAppender appends one message to the post stream.
type StreamAppender interface {
	Add(ctx context.Context, stream string, fields map[string]string) (string, error)
}

// Ingester appends synthetic posts to the stream at a configured pace.
type Ingester struct {
	broker StreamAppender
	cfg    config.ProducerConfig
}

func NewIngester(broker StreamAppender, cfg config.ProducerConfig) *Ingester {
	return &Ingester{broker: broker, cfg: cfg}
}

// Run produces posts until the context is cancelled. The pace is jittered
// around the configured posts-per-minute so arrival looks organic.
func (i *Ingester) Run(ctx context.Context) {
	slog.Info("[Ingester] Started",
		slog.String("stream", i.cfg.StreamName),
		slog.Int("posts_per_minute", i.cfg.PostsPerMinute))

	perMinute := i.cfg.PostsPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	base := time.Minute / time.Duration(perMinute)

	for {
		fields := GeneratePost()
		id, err := i.broker.Add(ctx, i.cfg.StreamName, fields)
		if err != nil {
			slog.Warn("[Ingester] Failed to append post",
				slog.String("error", err.Error()))
		} else {
			slog.Info("[Ingester] Appended post",
				slog.String("message_id", id),
				slog.String("post_id", fields["post_id"]),
				slog.String("platform", fields["platform"]))
		}

		// Jitter of 0.5x to 1.5x around the base interval.
		delay := base/2 + time.Duration(rand.Int63n(int64(base)))
		select {
		case <-ctx.Done():
			slog.Info("[Ingester] Shutting down...")
			return
		case <-time.After(delay):
		}
	}
}
