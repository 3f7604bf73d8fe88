package models

import "time"

// Post is one ingested unit of content. post_id is the stable external
// identifier and is unique across the posts table.
type Post struct {
	PostID     string     `json:"post_id"`
	Platform   string     `json:"platform"`
	Content    string     `json:"content"`
	Author     string     `json:"author"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	IngestedAt time.Time  `json:"ingested_at"`
}

// Analysis is the classification result for one post. Redelivery can
// produce a second Analysis for the same post_id; see DESIGN.md.
type Analysis struct {
	PostID          string    `json:"post_id"`
	ModelName       string    `json:"model_name"`
	SentimentLabel  string    `json:"sentiment_label"`
	ConfidenceScore float64   `json:"confidence_score"`
	Emotion         string    `json:"emotion,omitempty"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// Alert records one detected threshold breach. Immutable once created.
type Alert struct {
	ID             int64          `json:"id"`
	AlertType      string         `json:"alert_type"`
	ThresholdValue float64        `json:"threshold_value"`
	ActualValue    float64        `json:"actual_value"`
	WindowStart    time.Time      `json:"window_start"`
	WindowEnd      time.Time      `json:"window_end"`
	PostCount      int            `json:"post_count"`
	TriggeredAt    time.Time      `json:"triggered_at"`
	Details        map[string]int `json:"details,omitempty"`
}

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentLabels is the closed set of labels an analyzer may produce.
var SentimentLabels = []string{SentimentPositive, SentimentNegative, SentimentNeutral}

// Emotions is the closed set of emotion labels, "neutral" included.
var Emotions = []string{"joy", "anger", "sadness", "fear", "surprise", "neutral"}

// ValidSentiment reports whether label is one of the fixed sentiment labels.
func ValidSentiment(label string) bool {
	for _, l := range SentimentLabels {
		if l == label {
			return true
		}
	}
	return false
}

// ValidEmotion reports whether label is one of the fixed emotion labels.
func ValidEmotion(label string) bool {
	for _, e := range Emotions {
		if e == label {
			return true
		}
	}
	return false
}
