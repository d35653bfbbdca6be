package emotion

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ghost/internal/bus"
	"ghost/internal/config"
	"ghost/internal/logging"
	"ghost/internal/persist"
)

// Inertia weights. Old state dominates so a single message cannot flip
// the mood.
const (
	inertiaWeight  = 0.8
	stimulusWeight = 0.2
)

// Grudge latch parameters.
const (
	grudgePleasureThreshold  = -0.5
	grudgeDominanceThreshold = 0.5
	grudgeDampeningFactor    = 0.3
	grudgeAutoReleaseAfter   = 30 * time.Minute
	grudgeMoodReleaseAbove   = 0.2
)

var apologyKeywords = []string{"sorry", "apology", "apologize", "my bad", "forgive", "didn't mean"}

// GrudgeInfo reports the latch status.
type GrudgeInfo struct {
	Active   bool          `json:"active"`
	Trigger  string        `json:"trigger,omitempty"`
	Duration time.Duration `json:"duration"`
}

type persistedState struct {
	Timestamp    string  `json:"timestamp"`
	Pleasure     float64 `json:"pleasure"`
	Arousal      float64 `json:"arousal"`
	Dominance    float64 `json:"dominance"`
	GrudgeMode   bool    `json:"grudge_mode"`
	GrudgeReason string  `json:"grudge_trigger,omitempty"`
	GrudgeStart  string  `json:"grudge_start,omitempty"`
	Version      int     `json:"version"`
}

// Service owns the agent's emotional state: PAD vector, inertia, grudge
// latch, circadian influence, and sticky persistence across restarts.
type Service struct {
	cfg       config.EmotionConfig
	statePath string
	events    *bus.Bus
	rhythm    *Rhythm
	log       *zap.Logger
	now       func() time.Time

	mu           sync.Mutex
	state        State
	grudge       bool
	grudgeReason string
	grudgeStart  time.Time
}

// NewService restores the persisted state when present, otherwise starts
// from the default disposition.
func NewService(cfg config.EmotionConfig, statePath string, events *bus.Bus) *Service {
	s := &Service{
		cfg:       cfg,
		statePath: statePath,
		events:    events,
		rhythm:    NewRhythm(),
		log:       logging.For(logging.CategoryEmotion),
		now:       time.Now,
		state:     DefaultState(),
	}
	s.load()
	return s
}

// State returns the current PAD vector.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies a stimulus to the PAD state.
//
// Order: grudge dampening on positive pleasure, inertia weighting, decay
// toward neutral, delta application, clamp, latch evaluation, persistence,
// state-change event.
func (s *Service) Update(dp, da, dd float64, reason string) State {
	s.mu.Lock()

	old := s.state

	if s.grudge && dp > 0 {
		dp *= grudgeDampeningFactor
	}

	// Inertia: blend toward (old*W_old + delta*W_new), expressed as an
	// effective delta against the current state.
	effDP := (old.Pleasure*inertiaWeight + dp*stimulusWeight) - old.Pleasure
	effDA := (old.Arousal*inertiaWeight + da*stimulusWeight) - old.Arousal
	effDD := (old.Dominance*inertiaWeight + dd*stimulusWeight) - old.Dominance

	s.state = old.apply(effDP, effDA, effDD, s.cfg.DecayRate)
	s.evaluateGrudge(reason)
	newState := s.state
	grudging := s.grudge
	s.mu.Unlock()

	s.save()

	if s.events != nil {
		_ = s.events.Publish(bus.EmotionalStateChanged{
			Base:         bus.NewBase(),
			Pleasure:     newState.Pleasure,
			Arousal:      newState.Arousal,
			Dominance:    newState.Dominance,
			OldPleasure:  old.Pleasure,
			OldArousal:   old.Arousal,
			OldDominance: old.Dominance,
			GrudgeMode:   grudging,
			Reason:       reason,
		})
	}

	s.log.Debug("emotional state updated",
		zap.String("reason", reason),
		zap.Float64("pleasure", newState.Pleasure),
		zap.Float64("arousal", newState.Arousal),
		zap.Float64("dominance", newState.Dominance),
		zap.Bool("grudge", grudging))
	return newState
}

// evaluateGrudge runs with s.mu held.
func (s *Service) evaluateGrudge(reason string) {
	st := s.state

	if st.Pleasure < grudgePleasureThreshold && st.Dominance > grudgeDominanceThreshold && !s.grudge {
		s.grudge = true
		s.grudgeReason = reason
		s.grudgeStart = s.now()
		s.log.Warn("grudge mode activated",
			zap.Float64("pleasure", st.Pleasure),
			zap.Float64("dominance", st.Dominance),
			zap.String("trigger", reason))
	}

	if !s.grudge {
		return
	}

	lower := strings.ToLower(reason)
	for _, kw := range apologyKeywords {
		if strings.Contains(lower, kw) {
			s.releaseGrudge("apology detected")
			return
		}
	}
	if !s.grudgeStart.IsZero() && s.now().Sub(s.grudgeStart) > grudgeAutoReleaseAfter {
		s.releaseGrudge("time healed wounds")
		return
	}
	if st.Pleasure > grudgeMoodReleaseAbove {
		s.releaseGrudge("mood improved")
	}
}

func (s *Service) releaseGrudge(reason string) {
	s.grudge = false
	s.grudgeReason = ""
	s.grudgeStart = time.Time{}
	s.log.Info("grudge mode released", zap.String("reason", reason))
}

// InGrudgeMode reports whether the latch is set.
func (s *Service) InGrudgeMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grudge
}

// Grudge returns latch status and duration.
func (s *Service) Grudge() GrudgeInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := GrudgeInfo{Active: s.grudge, Trigger: s.grudgeReason}
	if !s.grudgeStart.IsZero() {
		info.Duration = s.now().Sub(s.grudgeStart)
	}
	return info
}

// ApplyCircadianInfluence nudges the state toward the time-of-day
// baseline. Influence is scaled way down; it is a drift, not a stimulus.
func (s *Service) ApplyCircadianInfluence() {
	if !s.cfg.CircadianEnabled {
		return
	}
	dp, da, dd := s.rhythm.Influence()
	s.Update(dp*0.1, da*0.1, dd*0.1, "circadian_rhythm")
}

// CircadianPhase names the current time-of-day phase.
func (s *Service) CircadianPhase() string {
	return s.rhythm.PhaseDescription()
}

// ProactivityModifier exposes the rhythm's autonomy scaling.
func (s *Service) ProactivityModifier() float64 {
	return s.rhythm.ProactivityModifier()
}

// ContextModifiers returns the prompt-building view of the emotional
// state, including grudge overrides when latched.
func (s *Service) ContextModifiers() map[string]any {
	s.mu.Lock()
	st := s.state
	grudge := s.grudge
	grudgeReason := s.grudgeReason
	grudgeStart := s.grudgeStart
	s.mu.Unlock()

	energy := "low"
	if st.Arousal > 0.3 {
		energy = "high"
	}
	stability := "stable"
	if st.Pleasure > 0.5 || st.Pleasure < -0.5 {
		stability = "intense"
	}

	mods := map[string]any{
		"mood_description":    st.Description(),
		"circadian_phase":     s.rhythm.PhaseDescription(),
		"energy_level":        energy,
		"emotional_stability": stability,
		"grudge_mode":         grudge,
	}
	if grudge {
		mods["grudge_reason"] = grudgeReason
		mods["mood_override"] = "cold, defensive, curt"
		if !grudgeStart.IsZero() {
			mods["grudge_duration_min"] = int(s.now().Sub(grudgeStart).Minutes())
		}
	}
	return mods
}

func (s *Service) save() {
	s.mu.Lock()
	data := persistedState{
		Timestamp:    s.now().UTC().Format(time.RFC3339),
		Pleasure:     s.state.Pleasure,
		Arousal:      s.state.Arousal,
		Dominance:    s.state.Dominance,
		GrudgeMode:   s.grudge,
		GrudgeReason: s.grudgeReason,
		Version:      2,
	}
	if !s.grudgeStart.IsZero() {
		data.GrudgeStart = s.grudgeStart.UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	if err := persist.SaveJSON(s.statePath, data); err != nil {
		s.log.Error("failed to save emotional state", zap.Error(err))
	}
}

func (s *Service) load() {
	var data persistedState
	err := persist.LoadJSON(s.statePath, &data)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.log.Info("no saved emotional state, starting fresh")
		return
	case err != nil:
		s.log.Warn("failed to load emotional state, using defaults", zap.Error(err))
		return
	}

	s.state = State{
		Pleasure:  clamp(data.Pleasure),
		Arousal:   clamp(data.Arousal),
		Dominance: clamp(data.Dominance),
	}
	s.grudge = data.GrudgeMode
	s.grudgeReason = data.GrudgeReason
	if data.GrudgeStart != "" {
		if t, err := time.Parse(time.RFC3339, data.GrudgeStart); err == nil {
			s.grudgeStart = t
		}
	}
	s.log.Info("restored emotional state",
		zap.Float64("pleasure", s.state.Pleasure),
		zap.Bool("grudge", s.grudge))
}
