package sentiment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/pulselens/internal/models"
)

func TestVADERSentimentLabels(t *testing.T) {
	v := NewVADERAnalyzer()
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"clearly positive", "I absolutely love this! Amazing, best purchase ever!", models.SentimentPositive},
		{"clearly negative", "Terrible experience, I hate it. Worst product ever, total disaster.", models.SentimentNegative},
		{"neutral statement", "The package arrived on Tuesday.", models.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.AnalyzeSentiment(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Label)
			assert.True(t, models.ValidSentiment(res.Label))
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
		})
	}
}

func TestVADEREmptyInputIsNeutral(t *testing.T) {
	v := NewVADERAnalyzer()
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\n\t"} {
		res, err := v.AnalyzeSentiment(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, models.SentimentNeutral, res.Label)
		assert.Zero(t, res.Confidence)

		emo, err := v.AnalyzeEmotion(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, "neutral", emo.Emotion)
	}
}

func TestVADEROversizedInput(t *testing.T) {
	v := NewVADERAnalyzer()

	text := strings.Repeat("I love this product. ", 200)
	res, err := v.AnalyzeSentiment(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, res.Label)
}

func TestEmotionLexicon(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"I am so happy and excited about this", "joy"},
		{"this makes me furious and angry", "anger"},
		{"feeling really sad and disappointed today", "sadness"},
		{"wow, did not see that coming", "surprise"},
		{"I'm scared of what happens next", "fear"},
		{"the sky has clouds in it", "neutral"},
	}

	for _, tt := range tests {
		got := classifyEmotion(tt.text)
		assert.Equal(t, tt.want, got, "text: %s", tt.text)
		assert.True(t, models.ValidEmotion(got))
	}
}

func TestConvertMarkdownToText(t *testing.T) {
	input := "Check [this link](https://example.com/page) and **bold** text at https://other.example"
	out := ConvertMarkdownToText(input)

	assert.NotContains(t, out, "https://")
	assert.Contains(t, out, "Check")
	assert.NotContains(t, out, "**")
}

func TestNewAnalyzerBackendSelection(t *testing.T) {
	a, err := NewAnalyzer("vader")
	require.NoError(t, err)
	assert.IsType(t, &VADERAnalyzer{}, a)

	a, err = NewAnalyzer("")
	require.NoError(t, err)
	assert.IsType(t, &VADERAnalyzer{}, a)

	_, err = NewAnalyzer("magic8ball")
	assert.Error(t, err)
}
