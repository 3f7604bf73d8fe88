package sentiment

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/pulselens/internal/models"
)

const vaderModelName = "govader"

// VADERAnalyzer scores sentiment locally with the VADER lexicon and emotion
// with a keyword lexicon. No network calls, so results are deterministic.
type VADERAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADERAnalyzer() *VADERAnalyzer {
	return &VADERAnalyzer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func RemoveLinks(input string) string {
	linkPattern := regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text

	urlPattern := regexp.MustCompile(`https?://\S+|www\.\S+`)
	input = urlPattern.ReplaceAllString(input, "")

	return input
}

func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := strings.Join(strings.Fields(string(output)), " ")

	return RemoveLinks(plainText)
}

func (v *VADERAnalyzer) AnalyzeSentiment(_ context.Context, text string) (SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return SentimentResult{
			Label:      models.SentimentNeutral,
			Confidence: 0.0,
			ModelName:  vaderModelName,
		}, nil
	}

	plainText := ConvertMarkdownToText(truncate(text))

	scores := v.analyzer.PolarityScores(plainText)
	compound := scores.Compound

	var label string
	if compound >= 0.20 {
		label = models.SentimentPositive
	} else if compound <= -0.20 {
		label = models.SentimentNegative
	} else {
		label = models.SentimentNeutral
	}

	return SentimentResult{
		Label:      label,
		Confidence: clamp01(math.Abs(compound)),
		ModelName:  vaderModelName,
	}, nil
}

func (v *VADERAnalyzer) AnalyzeEmotion(_ context.Context, text string) (EmotionResult, error) {
	if strings.TrimSpace(text) == "" {
		return EmotionResult{
			Emotion:    "neutral",
			Confidence: 0.0,
			ModelName:  emotionModelName,
		}, nil
	}

	plainText := ConvertMarkdownToText(truncate(text))
	emotion := classifyEmotion(plainText)

	return EmotionResult{
		Emotion:    emotion,
		Confidence: 0.7,
		ModelName:  emotionModelName,
	}, nil
}
