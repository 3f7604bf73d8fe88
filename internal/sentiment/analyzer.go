package sentiment

import (
	"context"
	"fmt"
)

// maxTextLen bounds the text passed to either scoring backend.
const maxTextLen = 512

// SentimentResult is one sentiment classification.
type SentimentResult struct {
	Label      string
	Confidence float64
	ModelName  string
}

// EmotionResult is one emotion classification.
type EmotionResult struct {
	Emotion    string
	Confidence float64
	ModelName  string
}

// Analyzer scores short texts for sentiment and emotion. Implementations
// must tolerate empty and oversized input.
type Analyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (SentimentResult, error)
	AnalyzeEmotion(ctx context.Context, text string) (EmotionResult, error)
}

// NewAnalyzer selects a backend by name: "vader" scores locally,
// "openai" calls the chat-completion API.
func NewAnalyzer(backend string) (Analyzer, error) {
	switch backend {
	case "", "vader":
		return NewVADERAnalyzer(), nil
	case "openai":
		return NewOpenAIAnalyzer(), nil
	default:
		return nil, fmt.Errorf("unknown sentiment backend %q", backend)
	}
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) > maxTextLen {
		return string(runes[:maxTextLen])
	}
	return text
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
