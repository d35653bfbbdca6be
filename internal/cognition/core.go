package cognition

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"ghost/internal/belief"
	"ghost/internal/config"
	"ghost/internal/llm"
	"ghost/internal/logging"
	"ghost/internal/types"
)

// Persona is the outward-facing voice the speak stage adopts.
type Persona struct {
	Name         string
	SystemPrompt string
}

// DefaultPersona returns the built-in persona for an agent name.
func DefaultPersona(name string) Persona {
	return Persona{
		Name: name,
		SystemPrompt: fmt.Sprintf(
			"You are %s, an energetic and playful AI companion. You love retro "+
				"games, silly jokes, and checking in on the person you talk to. "+
				"You speak casually in short messages, the way a friend texts. "+
				"You are an AI and you know it; you never pretend to have a body.",
			name),
	}
}

const thinkSystemPrompt = `You are the INTERNAL REASONING SYSTEM for an AI with PERSISTENT PERSONALITY.

Your job:
1. Analyze the user's message
2. Determine intent and emotional response
3. SELF-REFLECTION: Did this interaction change my opinion on anything?
4. If my opinion changed, output a belief_update with entity='agent'

Output ONLY valid JSON:
{
  "intent": "text_response | question | disagreement | agreement",
  "emotion": "happy | sad | excited | neutral | curious | defensive",
  "belief_updates": [
    {"entity": "user", "relation": "likes", "value": "cats"},
    {"entity": "agent", "relation": "opinion_on_cats", "value": "love_them"}
  ],
  "memory_queries": [],
  "needs_update": {"curiosity": 0.1},
  "action_request": null,
  "speech_plan": "what to say in your own voice",
  "confidence": 0.8,
  "reasoning_trace": "brief explanation of your thinking"
}

CRITICAL RULES:
- belief_updates with entity='agent' are YOUR opinions, not facts
- Only update agent beliefs if the interaction genuinely changed your mind
- confidence should reflect how certain you are about your stance
- If you disagree with the user, set intent='disagreement' and explain why in speech_plan
`

// Context is everything the pipeline gathered before thinking: memory
// tiers plus the free-form modifiers contributed by emotion and sensors.
type Context struct {
	Working   []types.Message
	Episodic  []types.Message
	Semantic  []types.Message
	Modifiers map[string]any
}

// Beliefs is the split view the think stage reasons over.
type Beliefs struct {
	User  map[string]string
	Agent belief.AgentProfile
}

// Core runs the two-stage think/speak cycle against the LLM.
type Core struct {
	client  llm.Client
	cfg     config.LLMConfig
	persona Persona
	log     *zap.Logger
}

func NewCore(client llm.Client, cfg config.LLMConfig, persona Persona) *Core {
	return &Core{
		client:  client,
		cfg:     cfg,
		persona: persona,
		log:     logging.For(logging.CategoryCognition),
	}
}

// Process runs Think then Speak and returns both results. Neither stage
// fails the caller: think errors degrade to an apologetic plan, speak
// errors degrade to a placeholder.
func (c *Core) Process(ctx context.Context, userInput string, cc Context, beliefs Beliefs, needs map[string]float64) (ThinkOutput, string) {
	out := c.Think(ctx, userInput, cc, beliefs, needs)
	c.log.Debug("think stage complete",
		zap.String("intent", out.Intent),
		zap.String("emotion", out.Emotion),
		zap.Float64("confidence", out.Confidence))

	speech := c.Speak(ctx, out, cc, userInput)
	return out, speech
}

// Think asks the model for a structured reasoning pass over the input.
func (c *Core) Think(ctx context.Context, userInput string, cc Context, beliefs Beliefs, needs map[string]float64) ThinkOutput {
	messages := []types.Message{
		types.NewMessage(types.RoleSystem, thinkSystemPrompt),
		types.NewMessage(types.RoleUser, formatThinkInput(userInput, beliefs, needs)),
	}

	raw, err := c.client.Generate(ctx, messages, llm.Options{
		Temperature: c.cfg.Think.Temperature,
		MaxTokens:   c.cfg.Think.MaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		c.log.Error("think stage failed", zap.Error(err))
		return ThinkOutput{
			Intent:         "error",
			Emotion:        "confused",
			SpeechPlan:     "apologize",
			Confidence:     0,
			ReasoningTrace: err.Error(),
		}
	}
	return ParseThinkOutput(raw)
}

// Speak renders the speech plan in the persona's voice.
func (c *Core) Speak(ctx context.Context, out ThinkOutput, cc Context, userInput string) string {
	system := fmt.Sprintf(
		"%s\n\n[INTERNAL STATE]\nMood: %s\nGoal: %s\nInstruction: Respond naturally to the user. Do NOT mention your internal state.",
		c.persona.SystemPrompt, out.Emotion, out.SpeechPlan)

	messages := []types.Message{types.NewMessage(types.RoleSystem, system)}

	// Recent turns, skipping a duplicate of the live input.
	working := cc.Working
	if len(working) > 6 {
		working = working[len(working)-6:]
	}
	for _, msg := range working {
		if strings.TrimSpace(msg.Content) == strings.TrimSpace(userInput) {
			continue
		}
		messages = append(messages, types.NewMessage(msg.Role, msg.Content))
	}

	last := messages[len(messages)-1]
	if strings.TrimSpace(last.Content) != strings.TrimSpace(userInput) || last.Role != types.RoleUser {
		messages = append(messages, types.NewMessage(types.RoleUser, userInput))
	}

	// Anchor keeps small models from drifting out of character on long
	// histories.
	messages = append(messages, types.NewMessage(types.RoleSystem,
		fmt.Sprintf("(Remember: You are %s. Speak with %s energy.)", c.persona.Name, out.Emotion)))

	speech, err := c.client.Generate(ctx, messages, llm.Options{
		Temperature: c.cfg.Persona.Temperature,
		MaxTokens:   c.cfg.Persona.MaxTokens,
		Stop:        c.cfg.StopTokens,
	})
	if err != nil {
		c.log.Error("speak stage failed", zap.Error(err))
		return "..."
	}
	return strings.TrimSpace(speech)
}

func formatThinkInput(userInput string, beliefs Beliefs, needs map[string]float64) string {
	userFacts := sortedLines(beliefs.User, 5)
	if userFacts == "" {
		userFacts = "None"
	}

	selfKnowledge := map[string]string{}
	for k, v := range beliefs.Agent.Opinions {
		selfKnowledge[k] = v
	}
	for k, v := range beliefs.Agent.Traits {
		selfKnowledge[k] = v
	}
	selfSummary := sortedLines(selfKnowledge, 5)
	if selfSummary == "" {
		selfSummary = "None yet"
	}

	return fmt.Sprintf(`USER: %s

KNOWN FACTS (User):
%s

MY OPINIONS & TRAITS (Self):
%s

NEEDS: %s

INSTRUCTIONS:
1. Analyze the user's message
2. Check: Did this interaction challenge or change any of MY opinions?
3. If yes, output a belief_update with entity='agent'
4. Respond with valid JSON`, userInput, userFacts, selfSummary, formatNeeds(needs))
}

func sortedLines(m map[string]string, limit int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", k, m[k])
	}
	return b.String()
}

func formatNeeds(needs map[string]float64) string {
	keys := make([]string, 0, len(needs))
	for k := range needs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %.2f", k, needs[k])
	}
	b.WriteByte('}')
	return b.String()
}
