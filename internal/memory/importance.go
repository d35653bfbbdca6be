package memory

import (
	"strings"

	"ghost/internal/types"
)

// Keyword groups that raise a message's importance.
var (
	personalInfoKeywords = []string{
		"my name is", "i am", "i'm", "i live", "i work", "my job",
		"my birthday", "i like", "i love", "i hate", "i prefer",
	}
	preferenceKeywords = []string{
		"favorite", "prefer", "like", "dislike", "love", "hate",
		"always", "never", "usually", "often",
	}
	futureKeywords = []string{
		"will", "going to", "plan to", "want to", "need to",
		"tomorrow", "next week", "later", "soon", "remember to",
	}
	emotionalKeywords = []string{
		"feel", "feeling", "happy", "sad", "angry", "excited",
		"worried", "stressed", "anxious", "grateful",
	}
	correctionKeywords = []string{
		"actually", "correction", "i meant", "not", "didn't", "don't",
	}
)

// ScoreImportance rates a message from 0 (trivial) to 1 (critical).
// Only messages above the configured threshold earn a slot in semantic
// memory; the rest live and die in the session buffers.
func ScoreImportance(msg types.Message) float64 {
	if msg.Role != types.RoleUser {
		return 0.3
	}

	content := strings.ToLower(msg.Content)
	score := 0.5

	containsAny := func(keywords []string) bool {
		for _, kw := range keywords {
			if strings.Contains(content, kw) {
				return true
			}
		}
		return false
	}

	if containsAny(personalInfoKeywords) {
		score += 0.3
	}
	if containsAny(preferenceKeywords) {
		score += 0.2
	}
	if containsAny(futureKeywords) {
		score += 0.2
	}
	if containsAny(emotionalKeywords) {
		score += 0.15
	}
	if containsAny(correctionKeywords) {
		score += 0.25
	}

	wordCount := len(strings.Fields(content))
	if wordCount > 30 {
		score += 0.1
	} else if wordCount < 3 {
		score -= 0.2
	}

	if strings.Contains(content, "?") {
		score += 0.1
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
