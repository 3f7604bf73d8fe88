package hub

import (
	"context"
	"log/slog"
	"time"

	"github.com/spacesedan/pulselens/internal/models"
)

// SentimentCounter provides sentiment counts for a trailing window.
type SentimentCounter interface {
	CountSentimentSince(ctx context.Context, since time.Time) (map[string]int, error)
}

// MetricsBroadcaster periodically publishes aggregate sentiment counts over
// the 1-minute, 1-hour and 24-hour trailing windows, independent of message
// arrival.
type MetricsBroadcaster struct {
	hub      *Hub
	counter  SentimentCounter
	interval time.Duration
}

func NewMetricsBroadcaster(h *Hub, counter SentimentCounter, interval time.Duration) *MetricsBroadcaster {
	return &MetricsBroadcaster{
		hub:      h,
		counter:  counter,
		interval: interval,
	}
}

// Run publishes metrics on a fixed cadence until the context is cancelled.
// A failed iteration is logged and skipped, never fatal.
func (m *MetricsBroadcaster) Run(ctx context.Context) {
	slog.Info("[MetricsBroadcaster] Started", slog.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("[MetricsBroadcaster] Shutting down...")
			return
		case <-ticker.C:
			if m.hub.Count() == 0 {
				continue
			}

			data, err := m.collect(ctx)
			if err != nil {
				slog.Warn("[MetricsBroadcaster] Failed to collect metrics",
					slog.String("error", err.Error()))
				continue
			}
			m.hub.Publish(models.MetricsEvent(data, time.Now()))
		}
	}
}

func (m *MetricsBroadcaster) collect(ctx context.Context) (models.MetricsData, error) {
	now := time.Now().UTC()

	lastMinute, err := m.windowCounts(ctx, now.Add(-time.Minute))
	if err != nil {
		return models.MetricsData{}, err
	}
	lastHour, err := m.windowCounts(ctx, now.Add(-time.Hour))
	if err != nil {
		return models.MetricsData{}, err
	}
	last24h, err := m.windowCounts(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return models.MetricsData{}, err
	}

	return models.MetricsData{
		LastMinute: lastMinute,
		LastHour:   lastHour,
		Last24h:    last24h,
	}, nil
}

func (m *MetricsBroadcaster) windowCounts(ctx context.Context, since time.Time) (models.WindowCounts, error) {
	counts, err := m.counter.CountSentimentSince(ctx, since)
	if err != nil {
		return models.WindowCounts{}, err
	}

	wc := models.WindowCounts{
		Positive: counts[models.SentimentPositive],
		Negative: counts[models.SentimentNegative],
		Neutral:  counts[models.SentimentNeutral],
	}
	wc.Total = wc.Positive + wc.Negative + wc.Neutral
	return wc, nil
}
