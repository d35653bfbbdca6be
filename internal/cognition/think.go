package cognition

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// BeliefUpdate is one proposed fact from the think stage.
type BeliefUpdate struct {
	Entity   string `json:"entity"`
	Relation string `json:"relation"`
	Value    string `json:"value"`
}

// ThinkOutput is the structured result of the internal reasoning stage.
// Local models emit this as loose JSON; ParseThinkOutput recovers it.
type ThinkOutput struct {
	Intent         string             `json:"intent"`
	Emotion        string             `json:"emotion"`
	BeliefUpdates  []BeliefUpdate     `json:"belief_updates"`
	MemoryQueries  []string           `json:"memory_queries"`
	NeedsUpdate    map[string]float64 `json:"needs_update"`
	ActionRequest  string             `json:"action_request"`
	SpeechPlan     string             `json:"speech_plan"`
	Confidence     float64            `json:"confidence"`
	ReasoningTrace string             `json:"reasoning_trace"`
	Timestamp      time.Time          `json:"-"`
}

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?(.*?)```")
	lineCommentRe   = regexp.MustCompile(`(?m)^\s*(//|#).*$`)
	missingCommaRe  = regexp.MustCompile(`(["\d\]\}]|true|false)\s*\n\s*"`)
	trailingCommaRe = regexp.MustCompile(`,\s*(\}|\])`)
	urlRe           = regexp.MustCompile(`https?://\S+`)
)

// ParseThinkOutput recovers a ThinkOutput from raw model text. It never
// returns an error to the caller: if every recovery stage fails, the
// result is a low-confidence fallback built from the raw text.
func ParseThinkOutput(raw string) ThinkOutput {
	cleaned := stripFences(strings.TrimSpace(raw))
	cleaned = lineCommentRe.ReplaceAllString(cleaned, "")

	candidate := largestObject(cleaned)
	if candidate == "" {
		return sanityFallback(raw)
	}

	if out, err := decodeThink(candidate); err == nil {
		return out
	}

	if repaired, err := jsonrepair.JSONRepair(candidate); err == nil {
		if out, err := decodeThink(repaired); err == nil {
			return out
		}
	}

	if out, err := decodeThink(manualRepair(candidate)); err == nil {
		return out
	}

	return sanityFallback(raw)
}

func stripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Unterminated fence: drop the opening marker and keep the rest.
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		return strings.TrimSpace(rest)
	}
	return s
}

// largestObject returns the outermost balanced { ... } block, or the
// text from the first unclosed brace to the end when nothing balances.
func largestObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

func decodeThink(s string) (ThinkOutput, error) {
	var out ThinkOutput
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return ThinkOutput{}, err
	}
	applyDefaults(&out)
	return out, nil
}

// manualRepair fixes the damage small models actually produce: missing
// commas between adjacent lines, trailing commas, and truncated output
// with unclosed braces or brackets.
func manualRepair(s string) string {
	s = missingCommaRe.ReplaceAllString(s, `$1,
"`)
	s = trailingCommaRe.ReplaceAllString(s, "$1")

	var braces, brackets int
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			braces++
		case c == '}':
			braces--
		case c == '[':
			brackets++
		case c == ']':
			brackets--
		}
	}
	if inString {
		s += `"`
	}
	s += strings.Repeat("]", max(0, brackets))
	s += strings.Repeat("}", max(0, braces))
	return s
}

func applyDefaults(out *ThinkOutput) {
	if out.Intent == "" {
		out.Intent = "text_response"
	}
	if out.Emotion == "" {
		out.Emotion = "neutral"
	}
	if out.SpeechPlan == "" {
		out.SpeechPlan = "continue conversation"
	}
	if out.Confidence == 0 {
		out.Confidence = 0.5
	}
	out.Confidence = max(0.0, min(1.0, out.Confidence))
	out.Timestamp = time.Now().UTC()
}

// sanityFallback salvages unparseable output into a usable plan so the
// speak stage still has something to work with.
func sanityFallback(raw string) ThinkOutput {
	plan := urlRe.ReplaceAllString(raw, "")
	plan = strings.Join(strings.Fields(plan), " ")
	if len(plan) > 100 {
		plan = plan[:100]
	}
	if strings.TrimSpace(plan) == "" {
		plan = "acknowledge"
	}
	return ThinkOutput{
		Intent:         "text_response",
		Emotion:        "neutral",
		SpeechPlan:     plan,
		Confidence:     0.3,
		ReasoningTrace: fmt.Sprintf("Fallback: %d chars", len(raw)),
		Timestamp:      time.Now().UTC(),
	}
}
