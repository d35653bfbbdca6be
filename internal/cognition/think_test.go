package cognition

import (
	"strings"
	"testing"
)

func TestParseCleanJSON(t *testing.T) {
	out := ParseThinkOutput(`{
		"intent": "question",
		"emotion": "curious",
		"belief_updates": [{"entity": "user", "relation": "likes", "value": "cats"}],
		"memory_queries": ["cats"],
		"needs_update": {"curiosity": 0.1},
		"speech_plan": "ask about the cat",
		"confidence": 0.8,
		"reasoning_trace": "user mentioned a pet"
	}`)

	if out.Intent != "question" || out.Emotion != "curious" {
		t.Errorf("intent/emotion = %q/%q", out.Intent, out.Emotion)
	}
	if len(out.BeliefUpdates) != 1 || out.BeliefUpdates[0].Value != "cats" {
		t.Errorf("belief updates = %+v", out.BeliefUpdates)
	}
	if out.NeedsUpdate["curiosity"] != 0.1 {
		t.Errorf("needs update = %v", out.NeedsUpdate)
	}
	if out.Confidence != 0.8 {
		t.Errorf("confidence = %f", out.Confidence)
	}
}

func TestParseFencedJSON(t *testing.T) {
	out := ParseThinkOutput("```json\n{\"intent\": \"agreement\", \"speech_plan\": \"agree warmly\"}\n```")
	if out.Intent != "agreement" {
		t.Errorf("intent = %q", out.Intent)
	}
	if out.SpeechPlan != "agree warmly" {
		t.Errorf("speech_plan = %q", out.SpeechPlan)
	}
}

func TestParseStripsComments(t *testing.T) {
	out := ParseThinkOutput(`{
		// model thinking out loud
		"intent": "text_response",
		# another comment style
		"speech_plan": "reply"
	}`)
	if out.SpeechPlan != "reply" {
		t.Errorf("speech_plan = %q", out.SpeechPlan)
	}
}

func TestParseSurroundingProse(t *testing.T) {
	out := ParseThinkOutput(`Sure! Here is the JSON you asked for:
{"intent": "text_response", "emotion": "happy", "speech_plan": "celebrate"}
Hope that helps!`)
	if out.Emotion != "happy" || out.SpeechPlan != "celebrate" {
		t.Errorf("parsed = %+v", out)
	}
}

func TestParseRepairsMissingCommas(t *testing.T) {
	out := ParseThinkOutput(`{
		"intent": "text_response"
		"emotion": "sad"
		"speech_plan": "console them"
	}`)
	if out.Emotion != "sad" || out.SpeechPlan != "console them" {
		t.Errorf("parsed = %+v", out)
	}
}

func TestParseRepairsTrailingCommas(t *testing.T) {
	out := ParseThinkOutput(`{"intent": "question", "memory_queries": ["games",], "speech_plan": "ask",}`)
	if out.Intent != "question" || len(out.MemoryQueries) != 1 {
		t.Errorf("parsed = %+v", out)
	}
}

func TestParseBalancesTruncatedOutput(t *testing.T) {
	// Model hit the token limit mid-object.
	out := ParseThinkOutput(`{"intent": "text_response", "emotion": "excited", "speech_plan": "share the news"`)
	if out.Emotion != "excited" {
		t.Errorf("parsed = %+v", out)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	out := ParseThinkOutput(`{"reasoning_trace": "hm"}`)
	if out.Intent != "text_response" {
		t.Errorf("intent default = %q", out.Intent)
	}
	if out.Emotion != "neutral" {
		t.Errorf("emotion default = %q", out.Emotion)
	}
	if out.SpeechPlan != "continue conversation" {
		t.Errorf("speech_plan default = %q", out.SpeechPlan)
	}
	if out.Confidence != 0.5 {
		t.Errorf("confidence default = %f", out.Confidence)
	}
}

func TestParseFallbackOnGarbage(t *testing.T) {
	raw := "total nonsense with a link https://example.com/foo and more words " + strings.Repeat("x", 200)
	out := ParseThinkOutput(raw)

	if out.Intent != "text_response" || out.Emotion != "neutral" {
		t.Errorf("fallback fields = %q/%q", out.Intent, out.Emotion)
	}
	if out.Confidence != 0.3 {
		t.Errorf("fallback confidence = %f", out.Confidence)
	}
	if strings.Contains(out.SpeechPlan, "https://") {
		t.Errorf("URL leaked into plan: %q", out.SpeechPlan)
	}
	if len(out.SpeechPlan) > 100 {
		t.Errorf("plan too long: %d chars", len(out.SpeechPlan))
	}
	if !strings.Contains(out.ReasoningTrace, "Fallback:") {
		t.Errorf("trace = %q", out.ReasoningTrace)
	}
}

func TestParseFallbackOnEmptyInput(t *testing.T) {
	out := ParseThinkOutput("   ")
	if out.SpeechPlan != "acknowledge" {
		t.Errorf("plan = %q", out.SpeechPlan)
	}
}

func TestLargestObjectIgnoresBracesInStrings(t *testing.T) {
	out := ParseThinkOutput(`{"intent": "text_response", "speech_plan": "use {curly} braces", "emotion": "happy"}`)
	if out.Emotion != "happy" {
		t.Errorf("brace-in-string broke extraction: %+v", out)
	}
}
