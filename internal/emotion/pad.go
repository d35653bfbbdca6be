// Package emotion implements the agent's PAD affect model.
//
// State lives on three axes in [-1, 1]: pleasure (positive vs negative
// affect), arousal (energy), dominance (confidence vs submission). Updates
// pass through inertia weighting and per-update decay so single messages
// cannot whipsaw the mood.
package emotion

import "strings"

// State is a point in PAD space.
type State struct {
	Pleasure  float64 `json:"pleasure"`
	Arousal   float64 `json:"arousal"`
	Dominance float64 `json:"dominance"`
}

// DefaultState is the factory-fresh disposition.
func DefaultState() State {
	return State{Pleasure: 0.6, Arousal: 0.7, Dominance: 0.5}
}

// Description renders the state in natural language for prompts.
func (s State) Description() string {
	mood := "somber"
	if s.Pleasure > 0 {
		mood = "positive"
	}
	energy := "calm"
	if s.Arousal > 0 {
		energy = "energetic"
	}
	confidence := "uncertain"
	if s.Dominance > 0 {
		confidence = "confident"
	}
	return mood + ", " + energy + ", " + confidence
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// decay moves v toward 0 by rate, never crossing it.
func decay(v, rate float64) float64 {
	switch {
	case v > 0:
		return max(0, v-rate)
	case v < 0:
		return min(0, v+rate)
	}
	return 0
}

// apply decays each axis then adds the deltas, clamped.
func (s State) apply(dp, da, dd, decayRate float64) State {
	return State{
		Pleasure:  clamp(decay(s.Pleasure, decayRate) + dp),
		Arousal:   clamp(decay(s.Arousal, decayRate) + da),
		Dominance: clamp(decay(s.Dominance, decayRate) + dd),
	}
}

// Keyword tables for the sentiment heuristic.
var (
	positiveWords   = []string{"happy", "love", "great", "awesome", "good", "thanks", "appreciate"}
	negativeWords   = []string{"sad", "hate", "bad", "terrible", "angry", "frustrated", "annoyed"}
	highEnergyWords = []string{"exciting", "intense", "urgent", "rush", "crazy", "wild"}
	lowEnergyWords  = []string{"tired", "calm", "boring", "slow", "sleepy", "relaxed"}
	dominantWords   = []string{"sure", "definitely", "absolutely", "confident", "know"}
	submissiveWords = []string{"maybe", "perhaps", "uncertain", "confused", "unsure", "help"}
)

// AnalyzeSentiment estimates PAD deltas from raw text. A crude keyword
// heuristic, used only when the think stage gives no usable emotion.
func AnalyzeSentiment(text string) (dp, da, dd float64) {
	lower := strings.ToLower(text)
	count := func(words []string) float64 {
		n := 0.0
		for _, w := range words {
			if strings.Contains(lower, w) {
				n++
			}
		}
		return n
	}
	dp = clamp(0.1*count(positiveWords) - 0.1*count(negativeWords))
	da = clamp(0.1*count(highEnergyWords) - 0.1*count(lowEnergyWords))
	dd = clamp(0.05*count(dominantWords) - 0.05*count(submissiveWords))
	return dp, da, dd
}
