package cryostasis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ghost/internal/bus"
	"ghost/internal/config"
	"ghost/internal/llm"
	"ghost/internal/logging"
)

// Controller polls the probe and flips the agent between active and
// hibernating. Hibernation unloads the model; waking is lazy, the next
// inference call reloads it.
type Controller struct {
	cfg    config.CryostasisConfig
	probe  Probe
	client llm.Client
	events *bus.Bus
	log    *zap.Logger

	now func() time.Time

	mu           sync.Mutex
	hibernating  bool
	paused       bool
	lastWakeTime time.Time
}

func NewController(cfg config.CryostasisConfig, probe Probe, client llm.Client, events *bus.Bus) *Controller {
	return &Controller{
		cfg:    cfg,
		probe:  probe,
		client: client,
		events: events,
		log:    logging.For(logging.CategoryCryostasis),
		now:    time.Now,
	}
}

// Run polls until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	if !c.cfg.Enabled {
		c.log.Info("cryostasis disabled")
		return
	}

	ticker := time.NewTicker(time.Duration(c.cfg.PollIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Check runs one gating decision. No-op while monitoring is paused.
func (c *Controller) Check(ctx context.Context) {
	c.mu.Lock()
	paused := c.paused
	hibernating := c.hibernating
	c.mu.Unlock()
	if paused {
		return
	}

	should, reason, alert := c.shouldHibernate()
	switch {
	case should && !hibernating:
		if alert != nil {
			alert.Base = bus.NewBase()
			_ = c.events.Publish(*alert)
		}
		c.hibernate(ctx, reason)
	case !should && hibernating:
		c.Wake(ctx)
	}
}

// shouldHibernate evaluates the sample against the gates. Threshold
// breaches also carry a SystemResourceAlert for the crossing.
func (c *Controller) shouldHibernate() (bool, string, *bus.SystemResourceAlert) {
	sample, err := c.probe.Sample(c.cfg.ProcessBlacklist)
	if err != nil {
		c.log.Warn("probe failed", zap.Error(err))
		return false, "", nil
	}

	if sample.BlacklistHit != "" {
		return true, fmt.Sprintf("blacklisted process: %s", sample.BlacklistHit), nil
	}
	if sample.GPUUtilPercent > c.cfg.GPUThresholdPercent {
		return true, fmt.Sprintf("high GPU utilization: %.0f%%", sample.GPUUtilPercent),
			&bus.SystemResourceAlert{Resource: "gpu", Value: sample.GPUUtilPercent, Limit: c.cfg.GPUThresholdPercent}
	}
	if sample.VRAMUsedMB > c.cfg.VRAMThresholdMB {
		return true, fmt.Sprintf("high VRAM usage: %.0fMB", sample.VRAMUsedMB),
			&bus.SystemResourceAlert{Resource: "vram", Value: sample.VRAMUsedMB, Limit: c.cfg.VRAMThresholdMB}
	}
	if sample.CPUUtilPercent > c.cfg.CPUThresholdPercent {
		return true, fmt.Sprintf("high CPU utilization: %.0f%%", sample.CPUUtilPercent),
			&bus.SystemResourceAlert{Resource: "cpu", Value: sample.CPUUtilPercent, Limit: c.cfg.CPUThresholdPercent}
	}
	return false, "", nil
}

func (c *Controller) hibernate(ctx context.Context, reason string) {
	c.log.Warn("entering cryostasis", zap.String("reason", reason))

	if err := c.client.Unload(ctx); err != nil {
		c.log.Error("failed to unload model", zap.Error(err))
		return
	}

	c.mu.Lock()
	c.hibernating = true
	c.mu.Unlock()

	_ = c.events.Publish(bus.CryostasisActivated{
		Base:    bus.NewBase(),
		Reason:  reason,
		FreedMB: 0,
	})
}

// Wake leaves hibernation. The cooldown stops wake/sleep thrashing
// while a heavy process starts up.
func (c *Controller) Wake(_ context.Context) bool {
	c.mu.Lock()
	if !c.hibernating {
		c.mu.Unlock()
		return true
	}
	cooldown := time.Duration(c.cfg.WakeCooldownSeconds) * time.Second
	if !c.lastWakeTime.IsZero() && c.now().Sub(c.lastWakeTime) < cooldown {
		c.mu.Unlock()
		c.log.Debug("wake cooldown active")
		return false
	}
	started := c.now()
	c.hibernating = false
	c.lastWakeTime = started
	c.mu.Unlock()

	c.log.Info("exiting cryostasis")
	_ = c.events.Publish(bus.CryostasisDeactivated{
		Base:       bus.NewBase(),
		LoadTimeMS: c.now().Sub(started).Milliseconds(),
	})
	return true
}

// Hibernating reports the current gate state.
func (c *Controller) Hibernating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hibernating
}

// PauseMonitoring holds gating decisions while a pipeline runs so a
// threshold cannot unload the model mid-inference.
func (c *Controller) PauseMonitoring() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// ResumeMonitoring re-enables gating decisions.
func (c *Controller) ResumeMonitoring() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}
