package alerting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/pulselens/config"
	"github.com/spacesedan/pulselens/internal/models"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	calls  int
}

func (f *fakeCounter) CountSentimentBetween(_ context.Context, _, _ time.Time) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.counts, nil
}

type fakeAlertStore struct {
	mu     sync.Mutex
	alerts []models.Alert
	err    error
}

func (f *fakeAlertStore) InsertAlert(_ context.Context, alert models.Alert) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.alerts = append(f.alerts, alert)
	return int64(len(f.alerts)), nil
}

func (f *fakeAlertStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

type fakeEventSink struct {
	mu     sync.Mutex
	events []models.Event
}

func (f *fakeEventSink) Publish(event models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func testAlertConfig() config.AlertConfig {
	return config.AlertConfig{
		Threshold:     2.0,
		WindowMinutes: 5,
		MinPosts:      10,
		CheckInterval: 5 * time.Millisecond,
	}
}

func TestCheckThresholds_BreachTriggersAlert(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int{
		models.SentimentPositive: 5,
		models.SentimentNegative: 11,
		models.SentimentNeutral:  0,
	}}
	m := NewMonitor(counter, &fakeAlertStore{}, nil, testAlertConfig())

	alert, err := m.CheckThresholds(context.Background())
	require.NoError(t, err)
	require.NotNil(t, alert)

	assert.Equal(t, "high_negative_ratio", alert.AlertType)
	assert.Equal(t, 2.0, alert.ThresholdValue)
	assert.Equal(t, 2.2, alert.ActualValue)
	assert.Equal(t, 16, alert.PostCount)
	assert.Equal(t, 11, alert.Details["negative_count"])
	assert.Equal(t, 5, alert.Details["positive_count"])
	assert.True(t, alert.WindowStart.Before(alert.WindowEnd))
	assert.Equal(t, 5*time.Minute, alert.WindowEnd.Sub(alert.WindowStart))
}

func TestCheckThresholds_BelowThresholdNoAlert(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int{
		models.SentimentPositive: 5,
		models.SentimentNegative: 9,
	}}
	m := NewMonitor(counter, &fakeAlertStore{}, nil, testAlertConfig())

	alert, err := m.CheckThresholds(context.Background())
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestCheckThresholds_SparseWindowIsInconclusive(t *testing.T) {
	// Ratio alone would blow past any threshold, but the volume is too low.
	counter := &fakeCounter{counts: map[string]int{
		models.SentimentPositive: 0,
		models.SentimentNegative: 4,
	}}
	m := NewMonitor(counter, &fakeAlertStore{}, nil, testAlertConfig())

	alert, err := m.CheckThresholds(context.Background())
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestNegativeRatio(t *testing.T) {
	tests := []struct {
		name               string
		positive, negative int
		want               float64
	}{
		{"normal ratio", 5, 11, 2.2},
		{"no positives flags on count", 0, 3, 3.0},
		{"empty window", 0, 0, 0},
		{"all positive", 7, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NegativeRatio(tt.positive, tt.negative), 1e-9)
		})
	}
}

func TestRun_PersistsAndPublishesOnBreach(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int{
		models.SentimentPositive: 2,
		models.SentimentNegative: 20,
	}}
	store := &fakeAlertStore{}
	sink := &fakeEventSink{}
	m := NewMonitor(counter, store, sink, testAlertConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.count() >= 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotEmpty(t, sink.events)
	assert.Equal(t, models.EventTypeAlert, sink.events[0].Type)
}

func TestRun_IterationErrorDoesNotStopLoop(t *testing.T) {
	counter := &fakeCounter{err: errors.New("store unavailable")}
	m := NewMonitor(counter, &fakeAlertStore{}, nil, testAlertConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	// The loop keeps ticking through consecutive failing iterations.
	require.Eventually(t, func() bool {
		counter.mu.Lock()
		defer counter.mu.Unlock()
		return counter.calls >= 3
	}, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRun_StoreFailureIsContained(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int{
		models.SentimentPositive: 1,
		models.SentimentNegative: 30,
	}}
	store := &fakeAlertStore{err: errors.New("insert failed")}
	m := NewMonitor(counter, store, nil, testAlertConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		counter.mu.Lock()
		defer counter.mu.Unlock()
		return counter.calls >= 2
	}, time.Second, time.Millisecond)
	cancel()
	<-done
}
