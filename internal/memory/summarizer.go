package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ghost/internal/llm"
	"ghost/internal/types"
)

const summaryPrompt = `You are a memory consolidation system. Your job is to create a concise summary of the following conversation that preserves the most important information.

Focus on:
- Key facts mentioned by the user (preferences, personal info, past events)
- Important topics discussed
- Decisions made or plans mentioned
- Recurring themes

Conversation:
%s

Create a bullet-point summary (max 5 points) of the most important information to remember:`

// Summarizer condenses a batch of messages for long-term storage.
// With an LLM it writes a real summary; without one it falls back to
// keyword frequency.
type Summarizer struct {
	client llm.Client
}

// NewSummarizer builds a summarizer. client may be nil.
func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{client: client}
}

// Summarize produces the consolidation text for messages.
func (s *Summarizer) Summarize(ctx context.Context, messages []types.Message) string {
	if len(messages) == 0 {
		return ""
	}
	if s.client == nil {
		return keywordSummary(messages)
	}

	var lines []string
	for _, m := range messages {
		if m.Role != types.RoleUser && m.Role != types.RoleAssistant {
			continue
		}
		content := m.Content
		if m.Role == types.RoleUser {
			// Strip the "Name: " delivery prefix.
			if _, rest, found := strings.Cut(content, ": "); found {
				content = rest
			}
		}
		speaker := "Assistant"
		if m.Role == types.RoleUser {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+content)
	}

	prompt := fmt.Sprintf(summaryPrompt, strings.Join(lines, "\n"))
	out, err := s.client.Generate(ctx,
		[]types.Message{types.NewMessage(types.RoleUser, prompt)},
		llm.Options{Temperature: 0.3, MaxTokens: 300})
	if err != nil {
		return keywordSummary(messages)
	}
	return strings.TrimSpace(out)
}

// keywordSummary extracts the most frequent meaningful words.
func keywordSummary(messages []types.Message) string {
	var userContents []string
	userCount := 0
	for _, m := range messages {
		if m.Role == types.RoleUser {
			userCount++
			userContents = append(userContents, m.Content)
		}
	}
	if userCount == 0 {
		return "Conversation about general topics"
	}

	parts := []string{fmt.Sprintf("Conversation with %d user messages", userCount)}

	freq := map[string]int{}
	for _, word := range strings.Fields(strings.ToLower(strings.Join(userContents, " "))) {
		if len(word) > 4 {
			freq[word]++
		}
	}
	if len(freq) > 0 {
		words := make([]string, 0, len(freq))
		for w := range freq {
			words = append(words, w)
		}
		sort.Slice(words, func(i, j int) bool {
			if freq[words[i]] != freq[words[j]] {
				return freq[words[i]] > freq[words[j]]
			}
			return words[i] < words[j]
		})
		if len(words) > 5 {
			words = words[:5]
		}
		parts = append(parts, "discussing: "+strings.Join(words, ", "))
	}
	return strings.Join(parts, ". ")
}
