package models

import "time"

const (
	EventTypeConnected     = "connected"
	EventTypeNewPost       = "new_post"
	EventTypeMetricsUpdate = "metrics_update"
	EventTypeAlert         = "alert"
)

// Event is one discrete message pushed to live observers.
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewPostData is the payload of a new_post event. Content is truncated
// to 100 runes before broadcast.
type NewPostData struct {
	PostID          string  `json:"post_id"`
	Content         string  `json:"content"`
	Platform        string  `json:"platform"`
	SentimentLabel  string  `json:"sentiment_label"`
	ConfidenceScore float64 `json:"confidence_score"`
	Emotion         string  `json:"emotion,omitempty"`
	Timestamp       string  `json:"timestamp"`
}

// WindowCounts holds sentiment counts over one trailing window.
type WindowCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Total    int `json:"total"`
}

// MetricsData is the payload of a metrics_update event.
type MetricsData struct {
	LastMinute WindowCounts `json:"last_minute"`
	LastHour   WindowCounts `json:"last_hour"`
	Last24h    WindowCounts `json:"last_24_hours"`
}

// EventTimestamp formats t the way the live event schema expects,
// UTC with a Z suffix.
func EventTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NewPostEvent builds the live event for one successfully processed message.
func NewPostEvent(post Post, analysis Analysis, now time.Time) Event {
	content := post.Content
	if runes := []rune(content); len(runes) > 100 {
		content = string(runes[:100])
	}

	return Event{
		Type: EventTypeNewPost,
		Data: NewPostData{
			PostID:          post.PostID,
			Content:         content,
			Platform:        post.Platform,
			SentimentLabel:  analysis.SentimentLabel,
			ConfidenceScore: analysis.ConfidenceScore,
			Emotion:         analysis.Emotion,
			Timestamp:       EventTimestamp(now),
		},
		Timestamp: EventTimestamp(now),
	}
}

// MetricsEvent builds the periodic aggregate-metrics event.
func MetricsEvent(data MetricsData, now time.Time) Event {
	return Event{
		Type:      EventTypeMetricsUpdate,
		Data:      data,
		Timestamp: EventTimestamp(now),
	}
}

// ConnectedEvent is the greeting sent to a newly subscribed observer.
func ConnectedEvent(now time.Time) Event {
	return Event{
		Type:      EventTypeConnected,
		Message:   "Connected to sentiment stream",
		Timestamp: EventTimestamp(now),
	}
}
