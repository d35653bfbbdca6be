package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ghost/internal/bdi"
	"ghost/internal/belief"
	"ghost/internal/bus"
	"ghost/internal/cognition"
	"ghost/internal/config"
	"ghost/internal/cryostasis"
	"ghost/internal/embedding"
	"ghost/internal/emotion"
	"ghost/internal/llm"
	"ghost/internal/logging"
	"ghost/internal/memory"
	"ghost/internal/sensors"
	"ghost/internal/speech"
	"ghost/internal/transport"
	"ghost/internal/vector"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd.Context())
	},
}

func runDaemon(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logging.Sync()
	log := logging.For(logging.CategorySystem)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event bus first; everything else hangs off it.
	events := bus.New()
	go events.Run(ctx)

	// Belief graph, seeded with identity on first boot.
	beliefs, err := belief.NewStore(cfg.BeliefDBPath())
	if err != nil {
		return err
	}
	defer beliefs.Close()
	if err := beliefs.EnsureIdentity(cfg.Agent.Name); err != nil {
		return err
	}

	// Inference and embeddings.
	client := llm.NewOllamaClient(cfg.LLM)
	if err := client.HealthCheck(ctx); err != nil {
		log.Warn("ollama not reachable at startup, continuing anyway", zap.Error(err))
	}
	engine, err := embedding.NewEngine(cfg.Memory.Embedding)
	if err != nil {
		log.Warn("embedding engine unavailable, falling back to substring search", zap.Error(err))
		engine = nil
	}

	// Memory tiers.
	vectors, err := vector.NewStore(cfg.VectorDir(), engine, cfg.Memory.TimeWeight)
	if err != nil {
		return err
	}
	mem := memory.NewHierarchical(cfg.Memory, vectors, memory.NewSummarizer(client))
	if err := mem.RestoreLatest(cfg.SnapshotDir()); err != nil {
		log.Warn("snapshot restore failed, starting fresh", zap.Error(err))
	}

	// Affect and drives.
	emotions := emotion.NewService(cfg.Emotion, cfg.EmotionStatePath(), events)
	drives := bdi.NewEngine(cfg.Autonomy, cfg.BDIStatePath(), events, emotions.ProactivityModifier)
	go drives.Run(ctx)

	// Resource gating.
	gater := cryostasis.NewController(cfg.Cryostasis, cryostasis.NewSystemProbe(), client, events)
	go gater.Run(ctx)

	// Sensors.
	sensorList := []sensors.Sensor{
		sensors.NewTimeSensor(),
		sensors.NewActivitySensor(sensors.DefaultActivityCategories(), events),
	}
	if dir := cfg.Transport.NotesDir; dir != "" {
		fileSensor, err := sensors.NewFileSensor(dir)
		if err != nil {
			log.Warn("file sensor disabled", zap.Error(err))
		} else {
			go fileSensor.Run(ctx)
			sensorList = append(sensorList, fileSensor)
		}
	}

	// The pipeline itself.
	orch := cognition.NewOrchestrator(cognition.Deps{
		Core:      cognition.NewCore(client, cfg.LLM, cognition.DefaultPersona(cfg.Agent.Name)),
		Validator: cognition.NewValidator(beliefs),
		Memory:    mem,
		Beliefs:   beliefs,
		Emotions:  emotions,
		Drives:    drives,
		Gater:     gater,
		Sensors:   sensorList,
		Events:    events,
	})
	orch.Subscribe(ctx)

	// Outbound delivery through the governor.
	delivery, console := buildTransports(ctx, cfg, events)
	delivery.Subscribe(ctx, events)
	if console != nil {
		go func() {
			if err := console.Run(ctx); err != nil {
				log.Warn("console closed", zap.Error(err))
			}
		}()
	}

	go circadianLoop(ctx, cfg.Emotion, emotions)
	go snapshotLoop(ctx, cfg, mem, log)

	log.Info("ghost is awake",
		zap.String("agent", cfg.Agent.Name),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("autonomy", cfg.Autonomy.Enabled))

	<-ctx.Done()
	log.Info("shutting down")

	drives.Save()
	if _, err := mem.Snapshot(cfg.SnapshotDir()); err != nil {
		log.Warn("final snapshot failed", zap.Error(err))
	}
	<-events.Done()
	return nil
}

func buildTransports(ctx context.Context, cfg *config.Config, events *bus.Bus) (*transport.Delivery, *transport.Console) {
	governor := speech.NewGovernor(cfg.Speech)

	var list []transport.Transport
	var console *transport.Console
	if cfg.Transport.Console {
		console = transport.NewConsole(cfg.Agent.Name, cfg.Agent.UserName, events, os.Stdin, os.Stdout)
		list = append(list, console)
	}
	if addr := cfg.Transport.Websocket; addr != "" {
		ws := transport.NewWebSocket(addr, cfg.Agent.Name, events)
		go ws.Run(ctx)
		list = append(list, ws)
	}
	return transport.NewDelivery(governor, list...), console
}

// circadianLoop nudges the PAD vector toward the time of day.
func circadianLoop(ctx context.Context, cfg config.EmotionConfig, emotions *emotion.Service) {
	if !cfg.CircadianEnabled {
		return
	}
	ticker := time.NewTicker(time.Duration(cfg.DecayIntervalSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			emotions.ApplyCircadianInfluence()
		case <-ctx.Done():
			return
		}
	}
}

// snapshotLoop periodically persists working and episodic memory.
func snapshotLoop(ctx context.Context, cfg *config.Config, mem *memory.Hierarchical, log *zap.Logger) {
	interval := time.Duration(cfg.Memory.SnapshotIntervalMin) * time.Minute
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if path, err := mem.Snapshot(cfg.SnapshotDir()); err != nil {
				log.Warn("snapshot failed", zap.Error(err))
			} else {
				log.Debug("memory snapshot written", zap.String("path", path))
			}
		case <-ctx.Done():
			return
		}
	}
}
