package cryostasis

import (
	"context"
	"sync"
	"testing"
	"time"

	"ghost/internal/bus"
	"ghost/internal/config"
	"ghost/internal/llm"
	"ghost/internal/types"
)

type fakeProbe struct {
	mu     sync.Mutex
	sample Sample
}

func (p *fakeProbe) Sample([]string) (Sample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sample, nil
}

func (p *fakeProbe) set(s Sample) {
	p.mu.Lock()
	p.sample = s
	p.mu.Unlock()
}

type unloadClient struct {
	mu      sync.Mutex
	unloads int
}

func (c *unloadClient) Generate(context.Context, []types.Message, llm.Options) (string, error) {
	return "", nil
}
func (c *unloadClient) Unload(context.Context) error {
	c.mu.Lock()
	c.unloads++
	c.mu.Unlock()
	return nil
}
func (c *unloadClient) HealthCheck(context.Context) error { return nil }

func testCryoCfg() config.CryostasisConfig {
	return config.CryostasisConfig{
		Enabled:             true,
		PollIntervalSeconds: 5,
		ProcessBlacklist:    []string{"steam"},
		GPUThresholdPercent: 75,
		CPUThresholdPercent: 60,
		VRAMThresholdMB:     14000,
		WakeCooldownSeconds: 10,
	}
}

func newTestController(t *testing.T) (*Controller, *fakeProbe, *unloadClient, *[]bus.Event) {
	t.Helper()
	probe := &fakeProbe{}
	client := &unloadClient{}
	events := bus.New()

	var published []bus.Event
	record := func(ev bus.Event) { published = append(published, ev) }
	events.Subscribe(bus.TypeCryostasisActivated, record)
	events.Subscribe(bus.TypeCryostasisDeactivated, record)

	ctx, cancel := context.WithCancel(context.Background())
	go events.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-events.Done()
	})

	return NewController(testCryoCfg(), probe, client, events), probe, client, &published
}

func drainBus(b *bus.Bus) {
	done := make(chan struct{})
	b.Subscribe("__drain__", func(bus.Event) {
		select {
		case <-done:
		default:
			close(done)
		}
	})
	b.Publish(drainEvent{Base: bus.NewBase()})
	<-done
}

type drainEvent struct{ bus.Base }

func (drainEvent) Type() string { return "__drain__" }

func TestHibernatesOnBlacklistedProcess(t *testing.T) {
	c, probe, client, published := newTestController(t)
	probe.set(Sample{BlacklistHit: "steam"})

	c.Check(t.Context())
	drainBus(c.events)

	if !c.Hibernating() {
		t.Fatal("controller did not hibernate")
	}
	if client.unloads != 1 {
		t.Errorf("unloads = %d", client.unloads)
	}
	if len(*published) != 1 {
		t.Fatalf("events = %d", len(*published))
	}
	activated := (*published)[0].(bus.CryostasisActivated)
	if activated.Reason != "blacklisted process: steam" {
		t.Errorf("reason = %q", activated.Reason)
	}
}

func TestHibernatesOnThresholds(t *testing.T) {
	cases := []struct {
		name   string
		sample Sample
	}{
		{"gpu", Sample{GPUUtilPercent: 90}},
		{"vram", Sample{VRAMUsedMB: 15000}},
		{"cpu", Sample{CPUUtilPercent: 80}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, probe, _, _ := newTestController(t)
			probe.set(tc.sample)
			c.Check(t.Context())
			if !c.Hibernating() {
				t.Error("did not hibernate")
			}
		})
	}
}

func TestThresholdCrossingPublishesResourceAlert(t *testing.T) {
	c, probe, _, _ := newTestController(t)
	var alerts []bus.SystemResourceAlert
	c.events.Subscribe(bus.TypeSystemResourceAlert, func(ev bus.Event) {
		alerts = append(alerts, ev.(bus.SystemResourceAlert))
	})

	probe.set(Sample{CPUUtilPercent: 80})
	c.Check(t.Context())
	c.Check(t.Context()) // still over while hibernating: no repeat alert
	drainBus(c.events)

	if len(alerts) != 1 {
		t.Fatalf("alerts = %d", len(alerts))
	}
	if alerts[0].Resource != "cpu" || alerts[0].Value != 80 || alerts[0].Limit != 60 {
		t.Errorf("alert = %+v", alerts[0])
	}
}

func TestStaysActiveUnderThresholds(t *testing.T) {
	c, probe, client, _ := newTestController(t)
	probe.set(Sample{GPUUtilPercent: 50, CPUUtilPercent: 30, VRAMUsedMB: 8000})

	c.Check(t.Context())
	if c.Hibernating() || client.unloads != 0 {
		t.Error("hibernated while under thresholds")
	}
}

func TestWakeAfterPressurePasses(t *testing.T) {
	c, probe, _, published := newTestController(t)
	probe.set(Sample{BlacklistHit: "steam"})
	c.Check(t.Context())

	// Pressure gone; cooldown not an obstacle since lastWakeTime is zero.
	probe.set(Sample{})
	c.Check(t.Context())
	drainBus(c.events)

	if c.Hibernating() {
		t.Fatal("still hibernating")
	}
	if len(*published) != 2 {
		t.Fatalf("events = %d", len(*published))
	}
	if _, ok := (*published)[1].(bus.CryostasisDeactivated); !ok {
		t.Errorf("second event = %T", (*published)[1])
	}
}

func TestWakeCooldownPreventsThrashing(t *testing.T) {
	c, probe, _, _ := newTestController(t)
	base := time.Now()
	c.now = func() time.Time { return base }

	probe.set(Sample{BlacklistHit: "steam"})
	c.Check(t.Context())
	probe.set(Sample{})
	c.Check(t.Context()) // wakes, records lastWakeTime

	probe.set(Sample{BlacklistHit: "steam"})
	c.Check(t.Context()) // hibernates again

	// 5 s later: inside the 10 s cooldown, wake refused.
	c.now = func() time.Time { return base.Add(5 * time.Second) }
	probe.set(Sample{})
	c.Check(t.Context())
	if !c.Hibernating() {
		t.Error("woke inside cooldown")
	}

	// 11 s later: cooldown over.
	c.now = func() time.Time { return base.Add(11 * time.Second) }
	c.Check(t.Context())
	if c.Hibernating() {
		t.Error("did not wake after cooldown")
	}
}

func TestPauseSuspendsGating(t *testing.T) {
	c, probe, client, _ := newTestController(t)
	probe.set(Sample{BlacklistHit: "steam"})

	c.PauseMonitoring()
	c.Check(t.Context())
	if c.Hibernating() || client.unloads != 0 {
		t.Error("gated while paused")
	}

	c.ResumeMonitoring()
	c.Check(t.Context())
	if !c.Hibernating() {
		t.Error("did not gate after resume")
	}
}
