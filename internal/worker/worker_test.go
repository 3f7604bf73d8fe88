package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/pulselens/config"
	"github.com/spacesedan/pulselens/internal/clients"
	"github.com/spacesedan/pulselens/internal/models"
	"github.com/spacesedan/pulselens/internal/sentiment"
)

type fakeBroker struct {
	mu      sync.Mutex
	acked   []string
	batches [][]clients.StreamEntry
}

func (f *fakeBroker) EnsureGroup(context.Context, string, string, string) error { return nil }

func (f *fakeBroker) ReadGroup(ctx context.Context, _, _, _ string, _ int, block time.Duration) ([]clients.StreamEntry, error) {
	f.mu.Lock()
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(block):
		return nil, nil
	}
}

func (f *fakeBroker) Ack(_ context.Context, _, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeBroker) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

type fakeStore struct {
	mu        sync.Mutex
	saved     []models.Analysis
	duplicate bool
	err       error
}

func (f *fakeStore) SaveAnalysisResult(_ context.Context, _ models.Post, analysis models.Analysis) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.saved = append(f.saved, analysis)
	return f.duplicate, nil
}

func (f *fakeStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakeAnalyzer struct {
	mu            sync.Mutex
	calls         int
	failuresLeft  int
	sentimentWord string
}

func (f *fakeAnalyzer) AnalyzeSentiment(_ context.Context, _ string) (sentiment.SentimentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failuresLeft != 0 {
		if f.failuresLeft > 0 {
			f.failuresLeft--
		}
		return sentiment.SentimentResult{}, errors.New("classifier unavailable")
	}
	label := f.sentimentWord
	if label == "" {
		label = models.SentimentPositive
	}
	return sentiment.SentimentResult{Label: label, Confidence: 0.9, ModelName: "fake"}, nil
}

func (f *fakeAnalyzer) AnalyzeEmotion(_ context.Context, _ string) (sentiment.EmotionResult, error) {
	return sentiment.EmotionResult{Emotion: "joy", Confidence: 0.7, ModelName: "fake"}, nil
}

func (f *fakeAnalyzer) sentimentCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.Analysis
}

func (f *fakePublisher) BroadcastNewPost(_ models.Post, analysis models.Analysis) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, analysis)
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func testConfig() config.WorkerConfig {
	return config.WorkerConfig{
		StreamName:    "posts",
		ConsumerGroup: "workers",
		BatchSize:     10,
		BlockInterval: 10 * time.Millisecond,
		MaxRetries:    3,
		RetryBackoff:  time.Millisecond,
	}
}

func newTestWorker(broker *fakeBroker, store *fakeStore, analyzer *fakeAnalyzer, pub *fakePublisher) *Worker {
	// Pass a true nil interface when no publisher is wanted; a nil
	// *fakePublisher wrapped in the Publisher interface would defeat the
	// worker's nil check.
	var p Publisher
	if pub != nil {
		p = pub
	}
	return NewWorker(broker, store, analyzer, p, testConfig())
}

func TestProcessMessage_MalformedAckedWithoutClassifying(t *testing.T) {
	broker := &fakeBroker{}
	store := &fakeStore{}
	analyzer := &fakeAnalyzer{}
	w := newTestWorker(broker, store, analyzer, nil)

	cases := []map[string]string{
		{"content": "no id here"},
		{"post_id": "p1"},
		{},
	}

	for i, fields := range cases {
		ok := w.processMessage(context.Background(), clients.StreamEntry{ID: "1-" + string(rune('a'+i)), Fields: fields})
		assert.True(t, ok)
	}

	assert.Len(t, broker.ackedIDs(), 3)
	assert.Zero(t, analyzer.sentimentCalls())
	assert.Zero(t, store.savedCount())
	assert.Zero(t, w.Errors())
}

func TestProcessMessage_HappyPath(t *testing.T) {
	broker := &fakeBroker{}
	store := &fakeStore{}
	analyzer := &fakeAnalyzer{}
	pub := &fakePublisher{}
	w := newTestWorker(broker, store, analyzer, pub)

	ok := w.processMessage(context.Background(), clients.StreamEntry{
		ID: "1-0",
		Fields: map[string]string{
			"post_id":  "p1",
			"content":  "I love this! Amazing!",
			"platform": "twitter",
		},
	})

	require.True(t, ok)
	assert.Equal(t, []string{"1-0"}, broker.ackedIDs())
	require.Equal(t, 1, store.savedCount())
	assert.Equal(t, models.SentimentPositive, store.saved[0].SentimentLabel)
	assert.Equal(t, "p1", store.saved[0].PostID)
	assert.Equal(t, 1, pub.count())
	assert.Equal(t, int64(1), w.Processed())
}

func TestProcessMessage_FieldAliases(t *testing.T) {
	broker := &fakeBroker{}
	store := &fakeStore{}
	w := newTestWorker(broker, store, &fakeAnalyzer{}, nil)

	ok := w.processMessage(context.Background(), clients.StreamEntry{
		ID: "1-0",
		Fields: map[string]string{
			"post_id": "p2",
			"text":    "great stuff",
			"source":  "reddit",
		},
	})

	require.True(t, ok)
	require.Equal(t, 1, store.savedCount())
}

func TestProcessMessage_RetryBound(t *testing.T) {
	broker := &fakeBroker{}
	store := &fakeStore{}
	analyzer := &fakeAnalyzer{failuresLeft: -1} // never recovers
	w := newTestWorker(broker, store, analyzer, nil)

	ok := w.processMessage(context.Background(), clients.StreamEntry{
		ID:     "1-0",
		Fields: map[string]string{"post_id": "p1", "content": "whatever"},
	})

	assert.False(t, ok)
	assert.Equal(t, 3, analyzer.sentimentCalls())
	// Acknowledged despite permanent failure, to avoid a poison-message stall.
	assert.Equal(t, []string{"1-0"}, broker.ackedIDs())
	assert.Equal(t, int64(3), w.Errors())
	assert.Equal(t, int64(1), w.Failed())
	assert.Zero(t, w.Processed())
	assert.Zero(t, store.savedCount())
}

func TestProcessMessage_RecoversAfterTransientFailure(t *testing.T) {
	broker := &fakeBroker{}
	store := &fakeStore{}
	analyzer := &fakeAnalyzer{failuresLeft: 1}
	w := newTestWorker(broker, store, analyzer, nil)

	ok := w.processMessage(context.Background(), clients.StreamEntry{
		ID:     "1-0",
		Fields: map[string]string{"post_id": "p1", "content": "eventually fine"},
	})

	require.True(t, ok)
	assert.Equal(t, 2, analyzer.sentimentCalls())
	assert.Equal(t, int64(1), w.Errors())
	assert.Zero(t, w.Failed())
	assert.Equal(t, 1, store.savedCount())
}

func TestProcessMessage_DuplicatePostIsSuccess(t *testing.T) {
	broker := &fakeBroker{}
	store := &fakeStore{duplicate: true}
	pub := &fakePublisher{}
	w := newTestWorker(broker, store, &fakeAnalyzer{}, pub)

	ok := w.processMessage(context.Background(), clients.StreamEntry{
		ID:     "1-0",
		Fields: map[string]string{"post_id": "p1", "content": "seen before"},
	})

	require.True(t, ok)
	assert.Equal(t, []string{"1-0"}, broker.ackedIDs())
	assert.Equal(t, int64(1), w.Processed())
	assert.Zero(t, w.Errors())
	// The event still goes out; the analysis row exists either way.
	assert.Equal(t, 1, pub.count())
}

func TestProcessMessage_StoreFailureRetries(t *testing.T) {
	broker := &fakeBroker{}
	store := &fakeStore{err: errors.New("connection reset")}
	w := newTestWorker(broker, store, &fakeAnalyzer{}, nil)

	ok := w.processMessage(context.Background(), clients.StreamEntry{
		ID:     "1-0",
		Fields: map[string]string{"post_id": "p1", "content": "db is down"},
	})

	assert.False(t, ok)
	assert.Equal(t, int64(3), w.Errors())
	assert.Equal(t, []string{"1-0"}, broker.ackedIDs())
}

func TestRun_BatchFailureIsolation(t *testing.T) {
	broker := &fakeBroker{
		batches: [][]clients.StreamEntry{{
			{ID: "1-0", Fields: map[string]string{"post_id": "good", "content": "all fine"}},
			{ID: "1-1", Fields: map[string]string{"content": "missing id"}},
		}},
	}
	store := &fakeStore{}
	pub := &fakePublisher{}
	w := newTestWorker(broker, store, &fakeAnalyzer{}, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(broker.ackedIDs()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not shut down")
	}

	assert.Equal(t, int64(1), w.Processed())
	assert.Equal(t, 1, store.savedCount())
}
