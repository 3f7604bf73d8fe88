package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spacesedan/pulselens/internal/clients"
	"github.com/spacesedan/pulselens/internal/models"
)

const openAIModelName = openai.GPT4oMini

const sentimentPrompt = `You are a sentiment classifier for short social media posts.
Respond with a JSON object: {"label": "positive"|"negative"|"neutral", "confidence": 0.0-1.0}.`

const emotionPrompt = `You are an emotion classifier for short social media posts.
Respond with a JSON object: {"emotion": "joy"|"anger"|"sadness"|"fear"|"surprise"|"neutral", "confidence": 0.0-1.0}.`

// OpenAIAnalyzer classifies through the chat-completion API. The client is
// the shared singleton, which panics at startup when the key is missing.
type OpenAIAnalyzer struct {
	client *clients.OpenAIClient
}

func NewOpenAIAnalyzer() *OpenAIAnalyzer {
	return &OpenAIAnalyzer{client: clients.GetOpenAIClient()}
}

func (o *OpenAIAnalyzer) AnalyzeSentiment(ctx context.Context, text string) (SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return SentimentResult{
			Label:      models.SentimentNeutral,
			Confidence: 0.0,
			ModelName:  openAIModelName,
		}, nil
	}

	content, err := o.classify(ctx, sentimentPrompt, truncate(text))
	if err != nil {
		return SentimentResult{}, err
	}

	var parsed struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return SentimentResult{}, fmt.Errorf("failed to parse sentiment response: %w", err)
	}
	if !models.ValidSentiment(parsed.Label) {
		parsed.Label = models.SentimentNeutral
	}

	return SentimentResult{
		Label:      parsed.Label,
		Confidence: clamp01(parsed.Confidence),
		ModelName:  openAIModelName,
	}, nil
}

func (o *OpenAIAnalyzer) AnalyzeEmotion(ctx context.Context, text string) (EmotionResult, error) {
	if strings.TrimSpace(text) == "" {
		return EmotionResult{
			Emotion:    "neutral",
			Confidence: 0.0,
			ModelName:  openAIModelName,
		}, nil
	}

	content, err := o.classify(ctx, emotionPrompt, truncate(text))
	if err != nil {
		return EmotionResult{}, err
	}

	var parsed struct {
		Emotion    string  `json:"emotion"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return EmotionResult{}, fmt.Errorf("failed to parse emotion response: %w", err)
	}
	if !models.ValidEmotion(parsed.Emotion) {
		parsed.Emotion = "neutral"
	}

	return EmotionResult{
		Emotion:    parsed.Emotion,
		Confidence: clamp01(parsed.Confidence),
		ModelName:  openAIModelName,
	}, nil
}

func (o *OpenAIAnalyzer) classify(ctx context.Context, system, text string) (string, error) {
	resp, err := o.client.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openAIModelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
