// Package bdi drives the agent's autonomy.
//
// Needs rise over time; needs past their threshold become desires;
// desires form intentions under a cooldown and a probability gate;
// executed intentions publish proactive impulses that the orchestrator
// turns into unprompted speech.
package bdi

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"ghost/internal/bus"
	"ghost/internal/config"
	"ghost/internal/logging"
	"ghost/internal/persist"
)

// Need is one internal drive. 0 is satisfied, 1 is critical.
type Need struct {
	Name          string
	Value         float64
	DecayRate     float64 // increase per hour
	Threshold     float64 // value that activates the desire
	LastSatisfied time.Time
}

// Critical reports whether the need demands action.
func (n *Need) Critical() bool { return n.Value >= n.Threshold }

// Intention is a planned autonomous action.
type Intention struct {
	Action     string
	Motivation string
	Priority   float64
	CreatedAt  time.Time
}

// Desire priorities and their actions.
var (
	desirePriority = map[string]float64{
		"seek_interaction": 0.7,
		"strengthen_bond":  0.6,
		"seek_knowledge":   0.5,
	}
	desireAction = map[string]string{
		"seek_interaction": "initiate_conversation",
		"strengthen_bond":  "share_thought",
		"seek_knowledge":   "ask_question",
	}
	desireReason = map[string]string{
		"seek_interaction": "haven't talked in a while, wanted to check in",
		"strengthen_bond":  "wanted to share something with you",
		"seek_knowledge":   "curious about something",
	}
	desireSatisfaction = map[string]struct {
		need   string
		amount float64
	}{
		"seek_interaction": {"social", 0.5},
		"strengthen_bond":  {"affiliation", 0.4},
		"seek_knowledge":   {"curiosity", 0.3},
	}
)

type persistedNeed struct {
	Value         float64 `json:"value"`
	LastSatisfied string  `json:"last_satisfied"`
}

type persistedState struct {
	Timestamp  string                   `json:"timestamp"`
	Needs      map[string]persistedNeed `json:"needs"`
	LastAction string                   `json:"last_action"`
	Version    int                      `json:"version"`
}

// Engine is the belief-desire-intention loop.
type Engine struct {
	cfg       config.AutonomyConfig
	events    *bus.Bus
	statePath string
	log       *zap.Logger

	// Injectable for deterministic tests.
	now         func() time.Time
	randFloat   func() float64
	proactivity func() float64

	mu         sync.Mutex
	needs      map[string]*Need
	intentions []Intention
	lastUpdate time.Time
	lastAction time.Time
}

// NewEngine restores persisted needs when present. proactivity scales
// the trigger probability by time of day; nil means always 1.
func NewEngine(cfg config.AutonomyConfig, statePath string, events *bus.Bus, proactivity func() float64) *Engine {
	if proactivity == nil {
		proactivity = func() float64 { return 1 }
	}
	e := &Engine{
		cfg:         cfg,
		events:      events,
		statePath:   statePath,
		log:         logging.For(logging.CategoryBDI),
		now:         time.Now,
		randFloat:   rand.Float64,
		proactivity: proactivity,
		needs:       defaultNeeds(),
	}
	e.lastUpdate = e.now()
	e.lastAction = e.now()
	e.load()
	return e
}

func defaultNeeds() map[string]*Need {
	now := time.Now().UTC()
	return map[string]*Need{
		"social":      {Name: "social", Value: 0.3, DecayRate: 0.15, Threshold: 0.7, LastSatisfied: now},
		"curiosity":   {Name: "curiosity", Value: 0.2, DecayRate: 0.08, Threshold: 0.6, LastSatisfied: now},
		"affiliation": {Name: "affiliation", Value: 0.5, DecayRate: 0.1, Threshold: 0.8, LastSatisfied: now},
	}
}

// Run executes the BDI cycle until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	if !e.cfg.Enabled {
		e.log.Info("autonomy disabled")
		return
	}

	ticker := time.NewTicker(time.Duration(e.cfg.CheckIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Step()
		case <-ctx.Done():
			e.save()
			return
		}
	}
}

// Step runs one BDI cycle: decay, desires, intention, execution.
func (e *Engine) Step() {
	e.decayNeeds()

	desires := e.activeDesires()
	if len(desires) > 0 {
		if intention, ok := e.formIntention(desires); ok {
			e.mu.Lock()
			e.intentions = append(e.intentions, intention)
			e.mu.Unlock()
		}
	}

	e.executeIntentions()
}

func (e *Engine) decayNeeds() {
	e.mu.Lock()
	defer e.mu.Unlock()

	hours := e.now().Sub(e.lastUpdate).Hours()
	if hours < 0.01 {
		return
	}
	for _, n := range e.needs {
		n.Value = min(1.0, n.Value+n.DecayRate*hours)
	}
	e.lastUpdate = e.now()
}

func (e *Engine) activeDesires() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var desires []string
	if e.needs["social"].Critical() {
		desires = append(desires, "seek_interaction")
	}
	if e.needs["curiosity"].Critical() {
		desires = append(desires, "seek_knowledge")
	}
	if e.needs["affiliation"].Critical() {
		desires = append(desires, "strengthen_bond")
	}
	return desires
}

// formIntention applies the cooldown and the probability gate, then
// picks the highest-priority desire.
func (e *Engine) formIntention(desires []string) (Intention, bool) {
	e.mu.Lock()
	sinceLast := e.now().Sub(e.lastAction)
	e.mu.Unlock()

	if sinceLast < time.Duration(e.cfg.MinIntervalMinutes)*time.Minute {
		return Intention{}, false
	}

	chance := e.cfg.TriggerProbability * e.proactivity()
	if e.randFloat() >= chance {
		return Intention{}, false
	}

	sort.Slice(desires, func(i, j int) bool {
		return desirePriority[desires[i]] > desirePriority[desires[j]]
	})
	primary := desires[0]

	action, ok := desireAction[primary]
	if !ok {
		return Intention{}, false
	}
	return Intention{
		Action:     action,
		Motivation: primary,
		Priority:   desirePriority[primary],
		CreatedAt:  e.now(),
	}, true
}

func (e *Engine) executeIntentions() {
	e.mu.Lock()
	if len(e.intentions) == 0 {
		e.mu.Unlock()
		return
	}
	sort.SliceStable(e.intentions, func(i, j int) bool {
		return e.intentions[i].Priority > e.intentions[j].Priority
	})
	intention := e.intentions[0]
	e.intentions = e.intentions[1:]
	e.mu.Unlock()

	e.log.Info("executing intention",
		zap.String("action", intention.Action),
		zap.String("motivation", intention.Motivation))

	if e.events != nil {
		err := e.events.Publish(bus.ProactiveImpulse{
			Base:   bus.NewBase(),
			Desire: intention.Motivation,
			Action: intention.Action,
			Reason: desireReason[intention.Motivation],
		})
		if err != nil {
			// Dropped impulse: leave the need critical, it will retry.
			return
		}
	}

	if sat, ok := desireSatisfaction[intention.Motivation]; ok {
		e.UpdateNeed(sat.need, -sat.amount)
	}

	e.mu.Lock()
	e.lastAction = e.now()
	e.mu.Unlock()
	e.save()
}

// UpdateNeed shifts a need by delta, clamped to [0, 1]. Negative deltas
// satisfy the need.
func (e *Engine) UpdateNeed(name string, delta float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.needs[name]
	if !ok {
		return
	}
	n.Value = max(0.0, min(1.0, n.Value+delta))
	if delta < 0 {
		n.LastSatisfied = e.now().UTC()
	}
}

// NeedState returns the current need values.
func (e *Engine) NeedState() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64, len(e.needs))
	for name, n := range e.needs {
		out[name] = n.Value
	}
	return out
}

// CheckWillpower is the gate on acting at all. Always allows today;
// kept as the seam where fatigue or mood vetoes would plug in.
func (e *Engine) CheckWillpower() (bool, string) {
	return true, ""
}

// MarkInteraction resets the action cooldown, called when the owner
// talks to the agent so it does not pile on immediately after.
func (e *Engine) MarkInteraction() {
	e.mu.Lock()
	e.lastAction = e.now()
	e.mu.Unlock()
}

func (e *Engine) save() {
	e.mu.Lock()
	state := persistedState{
		Timestamp:  e.now().UTC().Format(time.RFC3339),
		Needs:      map[string]persistedNeed{},
		LastAction: e.lastAction.UTC().Format(time.RFC3339),
		Version:    1,
	}
	for name, n := range e.needs {
		state.Needs[name] = persistedNeed{
			Value:         n.Value,
			LastSatisfied: n.LastSatisfied.UTC().Format(time.RFC3339),
		}
	}
	e.mu.Unlock()

	if err := persist.SaveJSON(e.statePath, state); err != nil {
		e.log.Error("failed to save needs", zap.Error(err))
	}
}

// Save persists the need state. Called on shutdown.
func (e *Engine) Save() { e.save() }

func (e *Engine) load() {
	var state persistedState
	err := persist.LoadJSON(e.statePath, &state)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return
	case err != nil:
		e.log.Warn("failed to load needs, using defaults", zap.Error(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for name, data := range state.Needs {
		if n, ok := e.needs[name]; ok {
			n.Value = max(0.0, min(1.0, data.Value))
			if t, err := time.Parse(time.RFC3339, data.LastSatisfied); err == nil {
				n.LastSatisfied = t
			}
		}
	}
	if t, err := time.Parse(time.RFC3339, state.LastAction); err == nil {
		e.lastAction = t
	}
	e.log.Info("restored need state", zap.Int("needs", len(state.Needs)))
}
