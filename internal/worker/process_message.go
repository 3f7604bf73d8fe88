package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/pulselens/internal/clients"
	"github.com/spacesedan/pulselens/internal/models"
	"github.com/spacesedan/pulselens/internal/sentiment"
)

// messageState tracks one message through its pipeline so the
// retry/backoff/idempotency interplay is explicit rather than buried in
// nested error handling.
type messageState int

const (
	statePending messageState = iota
	stateRetrying
	stateDone
	stateFailed
)

// processMessage runs one message to a terminal state. Malformed messages
// are acknowledged and dropped without retry. Transient failures are
// retried up to the configured maximum with a fixed backoff; exhausting
// retries still acknowledges the message so it cannot stall the stream,
// and the loss is surfaced through the error counter and log.
func (w *Worker) processMessage(ctx context.Context, entry clients.StreamEntry) bool {
	msg := models.StreamMessageFromFields(entry.Fields)
	if !msg.Valid() {
		slog.Warn("[Worker] Dropping malformed message",
			slog.String("message_id", entry.ID))
		w.ack(ctx, entry.ID)
		return true
	}

	state := statePending
	for attempt := 1; attempt <= w.cfg.MaxRetries; attempt++ {
		err := w.processAttempt(ctx, msg)
		if err == nil {
			state = stateDone
			break
		}

		w.errors.Add(1)
		slog.Error("[Worker] Error processing message",
			slog.String("message_id", entry.ID),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", w.cfg.MaxRetries),
			slog.String("error", err.Error()))

		if attempt == w.cfg.MaxRetries {
			state = stateFailed
			break
		}

		state = stateRetrying
		select {
		case <-ctx.Done():
			// Shutdown mid-retry leaves the entry pending for redelivery.
			return false
		case <-time.After(w.cfg.RetryBackoff):
		}
	}

	switch state {
	case stateDone:
		w.ack(ctx, entry.ID)
		w.processed.Add(1)
		return true
	case stateFailed:
		// Acked anyway to avoid a poison-message stall; the analysis for
		// this post is lost from the pipeline's perspective.
		w.failed.Add(1)
		slog.Error("[Worker] Permanent failure, acknowledging message",
			slog.String("message_id", entry.ID),
			slog.String("post_id", msg.PostID))
		w.ack(ctx, entry.ID)
		return false
	default:
		return false
	}
}

// processAttempt is one classify-then-persist attempt for a message.
func (w *Worker) processAttempt(ctx context.Context, msg models.StreamMessage) error {
	sentimentRes, emotionRes, err := w.classify(ctx, msg.Content)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	createdAt := msg.ParseCreatedAt(now)

	post := models.Post{
		PostID:     msg.PostID,
		Platform:   msg.Platform,
		Content:    msg.Content,
		Author:     msg.Author,
		CreatedAt:  &createdAt,
		IngestedAt: now,
	}
	analysis := models.Analysis{
		PostID:          msg.PostID,
		ModelName:       sentimentRes.ModelName,
		SentimentLabel:  sentimentRes.Label,
		ConfidenceScore: sentimentRes.Confidence,
		Emotion:         emotionRes.Emotion,
		AnalyzedAt:      now,
	}

	duplicate, err := w.store.SaveAnalysisResult(ctx, post, analysis)
	if err != nil {
		return fmt.Errorf("failed to persist result: %w", err)
	}
	if duplicate {
		slog.Info("[Worker] Redelivered post, analysis stored without post row",
			slog.String("post_id", msg.PostID))
	}

	if w.publisher != nil {
		w.publisher.BroadcastNewPost(post, analysis)
	}

	slog.Info("[Worker] Processed",
		slog.String("post_id", msg.PostID),
		slog.String("sentiment", analysis.SentimentLabel),
		slog.Float64("confidence", analysis.ConfidenceScore),
		slog.String("emotion", analysis.Emotion))
	return nil
}

// classify runs the sentiment and emotion calls concurrently. Either
// failing fails the attempt.
func (w *Worker) classify(ctx context.Context, text string) (sentiment.SentimentResult, sentiment.EmotionResult, error) {
	var (
		sentimentRes sentiment.SentimentResult
		emotionRes   sentiment.EmotionResult
		sentimentErr error
		emotionErr   error
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		emotionRes, emotionErr = w.analyzer.AnalyzeEmotion(ctx, text)
	}()

	sentimentRes, sentimentErr = w.analyzer.AnalyzeSentiment(ctx, text)
	<-done

	if sentimentErr != nil {
		return sentiment.SentimentResult{}, sentiment.EmotionResult{}, fmt.Errorf("sentiment analysis failed: %w", sentimentErr)
	}
	if emotionErr != nil {
		return sentiment.SentimentResult{}, sentiment.EmotionResult{}, fmt.Errorf("emotion analysis failed: %w", emotionErr)
	}
	return sentimentRes, emotionRes, nil
}

func (w *Worker) ack(ctx context.Context, id string) {
	if err := w.broker.Ack(ctx, w.cfg.StreamName, w.cfg.ConsumerGroup, id); err != nil {
		slog.Warn("[Worker] Failed to ack message",
			slog.String("message_id", id),
			slog.String("error", err.Error()))
	}
}
