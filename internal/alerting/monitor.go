package alerting

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/spacesedan/pulselens/config"
	"github.com/spacesedan/pulselens/internal/models"
)

const alertTypeHighNegativeRatio = "high_negative_ratio"

// SentimentCounter provides per-label analysis counts inside a window.
type SentimentCounter interface {
	CountSentimentBetween(ctx context.Context, from, to time.Time) (map[string]int, error)
}

// AlertStore persists triggered alerts.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert models.Alert) (int64, error)
}

// Publisher receives the live event for each triggered alert.
type Publisher interface {
	Publish(event models.Event)
}

// Monitor watches recent sentiment volume over a sliding window and raises
// an alert when the negative/positive ratio exceeds the threshold.
type Monitor struct {
	counter   SentimentCounter
	store     AlertStore
	publisher Publisher
	cfg       config.AlertConfig
}

func NewMonitor(counter SentimentCounter, store AlertStore, publisher Publisher, cfg config.AlertConfig) *Monitor {
	return &Monitor{
		counter:   counter,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Run evaluates the threshold once per interval until the context is
// cancelled. Errors from one iteration are logged and the loop continues
// at the next tick; nothing in here is fatal.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("[AlertMonitor] Started",
		slog.Duration("check_interval", m.cfg.CheckInterval),
		slog.Float64("threshold", m.cfg.Threshold),
		slog.Int("window_minutes", m.cfg.WindowMinutes))

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("[AlertMonitor] Shutting down...")
			return
		case <-ticker.C:
			if err := m.runOnce(ctx); err != nil {
				slog.Error("[AlertMonitor] Iteration failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) error {
	alert, err := m.CheckThresholds(ctx)
	if err != nil {
		return err
	}
	if alert == nil {
		return nil
	}

	id, err := m.store.InsertAlert(ctx, *alert)
	if err != nil {
		return err
	}

	slog.Warn("[AlertMonitor] ALERT TRIGGERED",
		slog.Int64("alert_id", id),
		slog.Float64("ratio", alert.ActualValue),
		slog.Float64("threshold", alert.ThresholdValue),
		slog.Int("post_count", alert.PostCount))

	if m.publisher != nil {
		m.publisher.Publish(models.Event{
			Type:      models.EventTypeAlert,
			Data:      alert,
			Timestamp: models.EventTimestamp(alert.TriggeredAt),
		})
	}
	return nil
}

// CheckThresholds evaluates the trailing window once. It returns nil when
// the window is inconclusive (below the minimum volume) or the ratio is
// within the threshold.
func (m *Monitor) CheckThresholds(ctx context.Context) (*models.Alert, error) {
	windowEnd := time.Now().UTC()
	windowStart := windowEnd.Add(-time.Duration(m.cfg.WindowMinutes) * time.Minute)

	counts, err := m.counter.CountSentimentBetween(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	positive := counts[models.SentimentPositive]
	negative := counts[models.SentimentNegative]
	neutral := counts[models.SentimentNeutral]
	total := positive + negative + neutral

	// Below the minimum volume the window is inconclusive, not zero.
	if total < m.cfg.MinPosts {
		return nil, nil
	}

	ratio := NegativeRatio(positive, negative)
	if ratio <= m.cfg.Threshold {
		return nil, nil
	}

	return &models.Alert{
		AlertType:      alertTypeHighNegativeRatio,
		ThresholdValue: m.cfg.Threshold,
		ActualValue:    round2(ratio),
		WindowStart:    windowStart,
		WindowEnd:      windowEnd,
		PostCount:      total,
		TriggeredAt:    time.Now().UTC(),
		Details: map[string]int{
			"positive_count": positive,
			"negative_count": negative,
			"neutral_count":  neutral,
			"total_count":    total,
		},
	}, nil
}

// NegativeRatio computes negative/positive. An all-negative window with no
// positives still flags: the negative count stands in for the ratio rather
// than dividing by zero.
func NegativeRatio(positive, negative int) float64 {
	if positive == 0 {
		if negative > 0 {
			return float64(negative)
		}
		return 0
	}
	return float64(negative) / float64(positive)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
