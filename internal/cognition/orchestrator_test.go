package cognition

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ghost/internal/bdi"
	"ghost/internal/belief"
	"ghost/internal/bus"
	"ghost/internal/config"
	"ghost/internal/emotion"
	"ghost/internal/llm"
	"ghost/internal/memory"
	"ghost/internal/types"
	"ghost/internal/vector"
)

// scriptedClient answers think calls (JSON mode) and speak calls
// separately.
type scriptedClient struct {
	think string
	speak string
}

func (s *scriptedClient) Generate(_ context.Context, _ []types.Message, opts llm.Options) (string, error) {
	if opts.JSONMode {
		return s.think, nil
	}
	return s.speak, nil
}
func (s *scriptedClient) Unload(context.Context) error      { return nil }
func (s *scriptedClient) HealthCheck(context.Context) error { return nil }

type fakeGater struct {
	mu          sync.Mutex
	hibernating bool
	woke        bool
	paused      int
	resumed     int
}

func (g *fakeGater) Hibernating() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hibernating
}
func (g *fakeGater) Wake(context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.woke = true
	g.hibernating = false
	return true
}
func (g *fakeGater) PauseMonitoring() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused++
}
func (g *fakeGater) ResumeMonitoring() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resumed++
}

type testRig struct {
	orch     *Orchestrator
	events   *bus.Bus
	beliefs  *belief.Store
	emotions *emotion.Service
	drives   *bdi.Engine
	memory   *memory.Hierarchical
	gater    *fakeGater

	mu        sync.Mutex
	responses []bus.ResponseGenerated
	auto      []bus.AutonomousMessageSent
}

func newRig(t *testing.T, client llm.Client) *testRig {
	t.Helper()
	dir := t.TempDir()

	events := bus.New()
	store, err := belief.NewStore(filepath.Join(dir, "beliefs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	vs, err := vector.NewStore(filepath.Join(dir, "vectors"), nil, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	mem := memory.NewHierarchical(cfg.Memory, vs, memory.NewSummarizer(nil))
	emotions := emotion.NewService(cfg.Emotion, filepath.Join(dir, "emotional_state.json"), events)
	drives := bdi.NewEngine(cfg.Autonomy, filepath.Join(dir, "bdi_state.json"), events, nil)
	gater := &fakeGater{}

	rig := &testRig{
		events:   events,
		beliefs:  store,
		emotions: emotions,
		drives:   drives,
		memory:   mem,
		gater:    gater,
	}
	rig.orch = NewOrchestrator(Deps{
		Core:      NewCore(client, cfg.LLM, DefaultPersona("Korone")),
		Validator: NewValidator(store),
		Memory:    mem,
		Beliefs:   store,
		Emotions:  emotions,
		Drives:    drives,
		Gater:     gater,
		Events:    events,
	})

	events.Subscribe(bus.TypeResponseGenerated, func(ev bus.Event) {
		rig.mu.Lock()
		rig.responses = append(rig.responses, ev.(bus.ResponseGenerated))
		rig.mu.Unlock()
	})
	events.Subscribe(bus.TypeAutonomousMessageSent, func(ev bus.Event) {
		rig.mu.Lock()
		rig.auto = append(rig.auto, ev.(bus.AutonomousMessageSent))
		rig.mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go events.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-events.Done()
	})
	return rig
}

func (r *testRig) waitResponses(t *testing.T, want int) []bus.ResponseGenerated {
	t.Helper()
	// The handler runs synchronously inside HandleMessage; one drain
	// round trip flushes the published events.
	done := make(chan struct{})
	r.events.Subscribe("__flush__", func(bus.Event) {
		select {
		case <-done:
		default:
			close(done)
		}
	})
	r.events.Publish(flushEvent{Base: bus.NewBase()})
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.responses) != want {
		t.Fatalf("got %d responses, want %d", len(r.responses), want)
	}
	return append([]bus.ResponseGenerated(nil), r.responses...)
}

type flushEvent struct{ bus.Base }

func (flushEvent) Type() string { return "__flush__" }

const happyThink = `{
	"intent": "text_response",
	"emotion": "happy",
	"belief_updates": [{"entity": "user", "relation": "likes", "value": "cats"}],
	"needs_update": {"curiosity": 0.05},
	"speech_plan": "share enthusiasm, ask about the cat?",
	"confidence": 0.9
}`

func TestPipelineEndToEnd(t *testing.T) {
	client := &scriptedClient{think: happyThink, speak: "a cat?? tell me everything!!"}
	rig := newRig(t, client)

	rig.orch.HandleMessage(t.Context(), "Sagun", "i adopted a cat today", "ev-1")

	responses := rig.waitResponses(t, 1)
	resp := responses[0]
	if resp.Content != "a cat?? tell me everything!!" {
		t.Errorf("response content = %q", resp.Content)
	}
	if resp.Emotion != "happy" || resp.Intent != "text_response" {
		t.Errorf("response = %+v", resp)
	}
	if resp.InReplyTo != "ev-1" {
		t.Errorf("in_reply_to = %q", resp.InReplyTo)
	}

	// Belief landed with inference source.
	val, found, err := rig.beliefs.Get("user", "likes")
	if err != nil || !found || val != "cats" {
		t.Errorf("belief = %q found=%v err=%v", val, found, err)
	}

	// Both turns reached memory, user message carries the name prefix.
	working := rig.memory.Working()
	if len(working) != 2 {
		t.Fatalf("working = %d messages", len(working))
	}
	if working[0].Content != "Sagun: i adopted a cat today" {
		t.Errorf("user memory = %q", working[0].Content)
	}

	// Needs: social 0.3 - 0.3 = 0, curiosity 0.2 + 0.1 (question) + 0.05 = 0.35.
	needs := rig.drives.NeedState()
	if needs["social"] > 0.01 {
		t.Errorf("social = %f", needs["social"])
	}
	if needs["curiosity"] < 0.34 || needs["curiosity"] > 0.36 {
		t.Errorf("curiosity = %f", needs["curiosity"])
	}

	// Happy think output moved the PAD vector up.
	if rig.emotions.State().Pleasure <= 0.43 {
		t.Errorf("pleasure = %f", rig.emotions.State().Pleasure)
	}

	// Monitoring was paused for the pipeline and resumed after.
	if rig.gater.paused != 1 || rig.gater.resumed != 1 {
		t.Errorf("gater pause/resume = %d/%d", rig.gater.paused, rig.gater.resumed)
	}
}

func TestPipelineWakesFromHibernation(t *testing.T) {
	client := &scriptedClient{think: happyThink, speak: "hi!"}
	rig := newRig(t, client)
	rig.gater.hibernating = true

	rig.orch.HandleMessage(t.Context(), "Sagun", "hello?", "ev-2")
	rig.waitResponses(t, 1)

	if !rig.gater.woke {
		t.Error("orchestrator did not wake the gater")
	}
}

func TestCriticalViolationForcesSafeSpeech(t *testing.T) {
	client := &scriptedClient{think: happyThink, speak: "i'm a human, i have a body"}
	rig := newRig(t, client)

	rig.orch.HandleMessage(t.Context(), "Sagun", "are you real?", "ev-3")

	responses := rig.waitResponses(t, 1)
	if responses[0].Content != "sorry, i had a confusing thought there" {
		t.Errorf("content = %q", responses[0].Content)
	}
}

func TestWarningOnlySpeechIsDelivered(t *testing.T) {
	// A belief conflict is a warning, and warnings alone must not cost
	// the user the reply.
	think := `{
		"intent": "text_response",
		"emotion": "neutral",
		"belief_updates": [{"entity": "user", "relation": "favorite_food", "value": "sushi"}],
		"speech_plan": "tease about the switch",
		"confidence": 0.8
	}`
	client := &scriptedClient{think: think, speak: "wait, since when is it sushi over pizza??"}
	rig := newRig(t, client)
	if _, err := rig.beliefs.Put("user", "favorite_food", "pizza", 0.9, belief.SourceInference); err != nil {
		t.Fatal(err)
	}

	rig.orch.HandleMessage(t.Context(), "Sagun", "sushi is my favorite food now", "ev-5")

	responses := rig.waitResponses(t, 1)
	if responses[0].Content != "wait, since when is it sushi over pizza??" {
		t.Errorf("content = %q", responses[0].Content)
	}
}

func TestImpulsePublishesAutonomousMessage(t *testing.T) {
	client := &scriptedClient{think: happyThink, speak: "heyyy been a while, what are you up to?"}
	rig := newRig(t, client)

	rig.orch.HandleImpulse(t.Context(), bus.ProactiveImpulse{
		Base:   bus.NewBase(),
		Desire: "seek_interaction",
		Action: "initiate_conversation",
		Reason: "haven't talked in a while, wanted to check in",
	})
	rig.waitResponses(t, 0)

	rig.mu.Lock()
	defer rig.mu.Unlock()
	if len(rig.auto) != 1 {
		t.Fatalf("got %d autonomous messages", len(rig.auto))
	}
	if rig.auto[0].Reason != "haven't talked in a while, wanted to check in" {
		t.Errorf("reason = %q", rig.auto[0].Reason)
	}
	if !strings.Contains(rig.auto[0].Content, "been a while") {
		t.Errorf("content = %q", rig.auto[0].Content)
	}
}

func TestImpulseDroppedWhileHibernating(t *testing.T) {
	client := &scriptedClient{think: happyThink, speak: "surprise, i missed you!"}
	rig := newRig(t, client)
	rig.gater.hibernating = true

	rig.orch.HandleImpulse(t.Context(), bus.ProactiveImpulse{
		Base:   bus.NewBase(),
		Desire: "seek_interaction",
		Action: "initiate_conversation",
		Reason: "bored",
	})
	rig.waitResponses(t, 0)

	rig.mu.Lock()
	defer rig.mu.Unlock()
	if len(rig.auto) != 0 {
		t.Fatalf("spoke while hibernating: %+v", rig.auto)
	}
	if rig.gater.woke {
		t.Error("impulse woke the model")
	}
}

func TestGenesisBeliefSurvivesInference(t *testing.T) {
	client := &scriptedClient{
		think: `{"intent": "text_response", "emotion": "neutral",
			"belief_updates": [{"entity": "agent", "relation": "name", "value": "Dave"}],
			"speech_plan": "rename myself"}`,
		speak: "call me Dave now",
	}
	rig := newRig(t, client)
	if _, err := rig.beliefs.Put("agent", "name", "Korone", 1.0, belief.SourceGenesis); err != nil {
		t.Fatal(err)
	}

	rig.orch.HandleMessage(t.Context(), "Sagun", "change your name", "ev-4")
	rig.waitResponses(t, 1)

	val, _, _ := rig.beliefs.Get("agent", "name")
	if val != "Korone" {
		t.Errorf("genesis belief overwritten: %q", val)
	}
}
