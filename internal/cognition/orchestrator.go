package cognition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ghost/internal/bdi"
	"ghost/internal/belief"
	"ghost/internal/bus"
	"ghost/internal/emotion"
	"ghost/internal/logging"
	"ghost/internal/memory"
	"ghost/internal/sensors"
	"ghost/internal/types"
)

// Safe placeholders for the failure paths.
const (
	speechConfused = "sorry, i had a confusing thought there"
	speechBroken   = "sorry, i'm having trouble thinking right now..."
)

const maxCognitiveAttempts = 3

// emotionDeltas maps the think stage's reported emotion to PAD deltas.
var emotionDeltas = map[string][3]float64{
	"happy":    {0.3, 0.2, 0.1},
	"sad":      {-0.3, -0.1, -0.1},
	"excited":  {0.2, 0.4, 0.2},
	"calm":     {0.1, -0.2, 0.0},
	"anxious":  {-0.2, 0.3, -0.2},
	"confused": {-0.1, 0.0, -0.3},
	"angry":    {-0.4, 0.3, 0.4},
	"neutral":  {0, 0, 0},
}

// ResourceGater is the hibernation controller as the orchestrator sees
// it: wake before thinking, hold monitoring off until the pipeline is
// done.
type ResourceGater interface {
	Hibernating() bool
	Wake(ctx context.Context) bool
	PauseMonitoring()
	ResumeMonitoring()
}

// Orchestrator sequences the full pipeline for each inbound message or
// proactive impulse: gate, gather, think, validate, speak, then fan the
// consequences out to every store.
type Orchestrator struct {
	core      *Core
	validator *Validator
	memory    *memory.Hierarchical
	beliefs   *belief.Store
	emotions  *emotion.Service
	drives    *bdi.Engine
	gater     ResourceGater
	sensors   []sensors.Sensor
	events    *bus.Bus
	log       *zap.Logger
}

// Deps carries everything the orchestrator coordinates. Gater and
// Sensors may be nil/empty.
type Deps struct {
	Core      *Core
	Validator *Validator
	Memory    *memory.Hierarchical
	Beliefs   *belief.Store
	Emotions  *emotion.Service
	Drives    *bdi.Engine
	Gater     ResourceGater
	Sensors   []sensors.Sensor
	Events    *bus.Bus
}

func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		core:      d.Core,
		validator: d.Validator,
		memory:    d.Memory,
		beliefs:   d.Beliefs,
		emotions:  d.Emotions,
		drives:    d.Drives,
		gater:     d.Gater,
		sensors:   d.Sensors,
		events:    d.Events,
		log:       logging.For(logging.CategoryCognition),
	}
}

// Subscribe wires the orchestrator to the bus. ctx bounds the LLM work
// done inside each handler invocation.
func (o *Orchestrator) Subscribe(ctx context.Context) {
	o.events.Subscribe(bus.TypeMessageReceived, func(ev bus.Event) {
		msg := ev.(bus.MessageReceived)
		o.HandleMessage(ctx, msg.UserName, msg.Content, msg.EventID())
	})
	o.events.Subscribe(bus.TypeProactiveImpulse, func(ev bus.Event) {
		o.HandleImpulse(ctx, ev.(bus.ProactiveImpulse))
	})
}

// HandleMessage runs the pipeline for one user utterance and publishes
// the reply as ResponseGenerated.
func (o *Orchestrator) HandleMessage(ctx context.Context, userName, content, inReplyTo string) {
	started := time.Now()
	out, speech := o.process(ctx, userName, content)

	o.publish(bus.ResponseGenerated{
		Base:      bus.NewBase(),
		Content:   speech,
		Emotion:   out.Emotion,
		Intent:    out.Intent,
		InReplyTo: inReplyTo,
	})
	o.drives.MarkInteraction()
	o.log.Info("pipeline complete",
		zap.String("intent", out.Intent),
		zap.Duration("elapsed", time.Since(started)))
}

// HandleImpulse turns a BDI impulse into unprompted speech via the same
// pipeline, driven by a synthetic input. Impulses never wake a
// hibernating model; the whole point of cryostasis is staying quiet
// while the owner's machine is busy.
func (o *Orchestrator) HandleImpulse(ctx context.Context, imp bus.ProactiveImpulse) {
	if o.gater != nil && o.gater.Hibernating() {
		o.log.Debug("impulse dropped during hibernation", zap.String("reason", imp.Reason))
		return
	}

	input := fmt.Sprintf("[AUTONOMOUS] Trigger: %s", imp.Reason)
	_, speech := o.process(ctx, "", input)

	o.publish(bus.AutonomousMessageSent{
		Base:    bus.NewBase(),
		Content: speech,
		Reason:  imp.Reason,
	})
	o.log.Info("autonomous message sent", zap.String("reason", imp.Reason))
}

// process is the eleven-step pipeline shared by both entry points.
func (o *Orchestrator) process(ctx context.Context, userName, content string) (out ThinkOutput, speech string) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("pipeline panicked", zap.Any("panic", r))
			out = ThinkOutput{Intent: "error", Emotion: "confused"}
			speech = speechBroken
		}
	}()

	// Wake gate. Monitoring stays paused until the pipeline is done so
	// thresholds cannot flip state mid-inference.
	if o.gater != nil {
		if o.gater.Hibernating() {
			o.gater.Wake(ctx)
		}
		o.gater.PauseMonitoring()
		defer o.gater.ResumeMonitoring()
	}

	// Willpower gate.
	if ok, reason := o.drives.CheckWillpower(); !ok {
		o.log.Info("willpower refused", zap.String("reason", reason))
		return ThinkOutput{Intent: "refusal", Emotion: "neutral"}, reason
	}

	cc := o.gatherContext(ctx, content)
	beliefs := o.gatherBeliefs()
	needs := o.drives.NeedState()

	out, speech = o.cognitiveLoop(ctx, content, cc, beliefs, needs)

	o.applyEmotion(out)
	o.applyBeliefs(out)
	o.recordMemory(ctx, userName, content, speech)
	o.satisfyNeeds(out)

	return out, speech
}

func (o *Orchestrator) gatherContext(ctx context.Context, input string) Context {
	cc := Context{Modifiers: map[string]any{}}

	mem, err := o.memory.GetContext(ctx, input)
	if err != nil {
		o.log.Warn("memory context failed", zap.Error(err))
	} else {
		cc.Working = mem.Working
		cc.Episodic = mem.Episodic
		cc.Semantic = mem.Semantic
	}

	for k, v := range o.emotions.ContextModifiers() {
		cc.Modifiers[k] = v
	}
	for i, block := range sensors.Gather(o.sensors) {
		cc.Modifiers[fmt.Sprintf("sensor_%d", i)] = block
	}
	return cc
}

func (o *Orchestrator) gatherBeliefs() Beliefs {
	user, err := o.beliefs.GetAll("user")
	if err != nil {
		o.log.Warn("user beliefs unavailable", zap.Error(err))
	}
	profile, err := o.beliefs.AgentProfile()
	if err != nil {
		o.log.Warn("agent profile unavailable", zap.Error(err))
	}
	return Beliefs{User: user, Agent: profile}
}

// cognitiveLoop retries think/speak while the validator rejects the
// output. Warnings never block delivery; a critical violation earns the
// model a fresh attempt, and persistent criticals end in a safe
// placeholder.
func (o *Orchestrator) cognitiveLoop(ctx context.Context, input string, cc Context, beliefs Beliefs, needs map[string]float64) (ThinkOutput, string) {
	var out ThinkOutput
	var speech string

	for attempt := 1; attempt <= maxCognitiveAttempts; attempt++ {
		out, speech = o.core.Process(ctx, input, cc, beliefs, needs)

		result := o.validator.Validate(out, speech)
		if result.Approved {
			if len(result.Violations) > 0 {
				o.log.Warn("delivering with warnings",
					zap.Int("attempt", attempt),
					zap.Strings("violations", result.Violations))
				if corrected, ok := o.validator.AutoCorrect(result, speech); ok {
					return out, corrected
				}
			}
			return out, speech
		}

		o.log.Warn("validation rejected output",
			zap.Int("attempt", attempt),
			zap.String("severity", result.Severity),
			zap.Strings("violations", result.Violations))
	}
	return out, speechConfused
}

func (o *Orchestrator) applyEmotion(out ThinkOutput) {
	d, ok := emotionDeltas[strings.ToLower(out.Emotion)]
	if !ok {
		return
	}
	o.emotions.Update(d[0], d[1], d[2], "think_stage:"+out.Intent)
}

func (o *Orchestrator) applyBeliefs(out ThinkOutput) {
	for _, u := range out.BeliefUpdates {
		if u.Entity == "" || u.Relation == "" || u.Value == "" {
			continue
		}
		written, err := o.beliefs.Put(u.Entity, u.Relation, u.Value, out.Confidence, belief.SourceInference)
		if err != nil {
			o.log.Error("belief write failed",
				zap.String("entity", u.Entity),
				zap.String("relation", u.Relation),
				zap.Error(err))
			continue
		}
		if !written {
			o.log.Debug("belief write rejected by genesis immutability",
				zap.String("entity", u.Entity),
				zap.String("relation", u.Relation))
		}
	}
}

func (o *Orchestrator) recordMemory(ctx context.Context, userName, content, speech string) {
	userContent := content
	if userName != "" {
		userContent = fmt.Sprintf("%s: %s", userName, content)
	}
	if err := o.memory.Add(ctx, types.NewMessage(types.RoleUser, userContent)); err != nil {
		o.log.Warn("failed to store user message", zap.Error(err))
	}
	if err := o.memory.Add(ctx, types.NewMessage(types.RoleAssistant, speech)); err != nil {
		o.log.Warn("failed to store reply", zap.Error(err))
	}
}

func (o *Orchestrator) satisfyNeeds(out ThinkOutput) {
	// Talking satisfies the social drive; asking feeds curiosity.
	o.drives.UpdateNeed("social", -0.3)
	if strings.Contains(out.SpeechPlan, "?") {
		o.drives.UpdateNeed("curiosity", 0.1)
	}
	for name, delta := range out.NeedsUpdate {
		o.drives.UpdateNeed(name, delta)
	}
}

func (o *Orchestrator) publish(ev bus.Event) {
	if err := o.events.Publish(ev); err != nil {
		o.log.Error("failed to publish", zap.String("type", ev.Type()), zap.Error(err))
	}
}
