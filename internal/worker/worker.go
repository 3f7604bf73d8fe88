package worker

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spacesedan/pulselens/config"
	"github.com/spacesedan/pulselens/internal/clients"
	"github.com/spacesedan/pulselens/internal/models"
	"github.com/spacesedan/pulselens/internal/sentiment"
)

// Broker is the consumer-group contract the worker needs from the stream.
type Broker interface {
	EnsureGroup(ctx context.Context, stream, group, startID string) error
	ReadGroup(ctx context.Context, group, consumer, stream string, count int, block time.Duration) ([]clients.StreamEntry, error)
	Ack(ctx context.Context, stream, group, id string) error
}

// AnalysisStore persists one message's results as a transactional unit.
type AnalysisStore interface {
	SaveAnalysisResult(ctx context.Context, post models.Post, analysis models.Analysis) (duplicate bool, err error)
}

// Publisher receives the live event for each processed message.
type Publisher interface {
	BroadcastNewPost(post models.Post, analysis models.Analysis)
}

// Worker drains the post stream under a named consumer group and turns each
// message into durable state. Messages in a batch are processed as
// independent concurrent units; one message's retries never delay its
// siblings' acknowledgments.
type Worker struct {
	broker    Broker
	store     AnalysisStore
	analyzer  sentiment.Analyzer
	publisher Publisher

	cfg          config.WorkerConfig
	consumerName string

	processed atomic.Int64
	errors    atomic.Int64
	failed    atomic.Int64
}

func NewWorker(broker Broker, store AnalysisStore, analyzer sentiment.Analyzer, publisher Publisher, cfg config.WorkerConfig) *Worker {
	return &Worker{
		broker:       broker,
		store:        store,
		analyzer:     analyzer,
		publisher:    publisher,
		cfg:          cfg,
		consumerName: consumerName(),
	}
}

// consumerName is stable for the process lifetime, as the broker tracks
// pending entries per consumer.
func consumerName() string {
	return "worker-" + strconv.Itoa(os.Getpid())
}

// Processed returns the number of successfully processed messages.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Errors returns the total number of failed processing attempts.
func (w *Worker) Errors() int64 { return w.errors.Load() }

// Failed returns the number of messages lost after exhausting retries.
func (w *Worker) Failed() int64 { return w.failed.Load() }

// Run consumes the stream until the context is cancelled. In-flight
// messages finish before a batch boundary is crossed, so every message is
// acknowledged exactly once per terminal outcome.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.broker.EnsureGroup(ctx, w.cfg.StreamName, w.cfg.ConsumerGroup, "0"); err != nil {
		return err
	}

	slog.Info("[Worker] Started, waiting for messages...",
		slog.String("stream", w.cfg.StreamName),
		slog.String("group", w.cfg.ConsumerGroup),
		slog.String("consumer", w.consumerName))

	for {
		select {
		case <-ctx.Done():
			slog.Info("[Worker] Shutting down...")
			return ctx.Err()
		default:
		}

		entries, err := w.broker.ReadGroup(ctx, w.cfg.ConsumerGroup, w.consumerName,
			w.cfg.StreamName, w.cfg.BatchSize, w.cfg.BlockInterval)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("[Worker] Failed to read batch",
				slog.String("error", err.Error()))
			sleepCtx(ctx, 5*time.Second)
			continue
		}
		if len(entries) == 0 {
			continue
		}

		var wg sync.WaitGroup
		for _, entry := range entries {
			wg.Add(1)
			go func(entry clients.StreamEntry) {
				defer wg.Done()
				w.processMessage(ctx, entry)
			}(entry)
		}
		wg.Wait()

		if p := w.processed.Load(); p > 0 && p%10 == 0 {
			slog.Info("[Worker] Stats",
				slog.Int64("processed", p),
				slog.Int64("errors", w.errors.Load()))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
