package sentiment

import "strings"

const emotionModelName = "keyword-lexicon"

// emotionLexicon maps trigger words to emotion labels. First match wins in
// the order below.
var emotionLexicon = []struct {
	emotion string
	words   []string
}{
	{"joy", []string{"happy", "love", "great", "amazing", "excited", "joy", "thrilled", "fantastic", "wonderful"}},
	{"anger", []string{"angry", "hate", "furious", "mad", "frustrated", "annoyed", "disgusting"}},
	{"sadness", []string{"sad", "disappointed", "depressed", "unhappy", "miserable", "grief"}},
	{"surprise", []string{"wow", "surprise", "unexpected", "unbelievable"}},
	{"fear", []string{"scared", "fear", "afraid", "terrified", "nervous", "worried"}},
}

func classifyEmotion(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range emotionLexicon {
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				return entry.emotion
			}
		}
	}
	return "neutral"
}
