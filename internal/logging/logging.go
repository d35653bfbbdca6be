// Package logging provides the agent's categorized loggers.
//
// Every subsystem logs through a named child of one shared zap logger so
// log lines carry their category ("cognition", "emotion", ...) and level
// filtering stays centralized. A second, bare-JSON logger appends event
// metrics to logs/metrics.jsonl.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log categories. One per subsystem.
const (
	CategorySystem     = "system"
	CategoryBus        = "bus"
	CategoryEmotion    = "emotion"
	CategoryBelief     = "belief"
	CategoryMemory     = "memory"
	CategoryCognition  = "cognition"
	CategoryBDI        = "bdi"
	CategorySpeech     = "speech"
	CategoryCryostasis = "cryostasis"
	CategorySensor     = "sensor"
	CategoryTransport  = "transport"
	CategoryLLM        = "llm"
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	metrics = zap.NewNop()
)

// Initialize sets up the shared logger and the metrics appender.
// logDir receives ghost.log and metrics.jsonl.
func Initialize(logDir string, level string, development bool) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	logFile, err := os.OpenFile(filepath.Join(logDir, "ghost.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEnc := zapcore.NewConsoleEncoder(encCfg)
	fileEnc := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(fileEnc, zapcore.AddSync(logFile), lvl),
	}
	if development {
		cores = append(cores, zapcore.NewCore(consoleEnc, zapcore.AddSync(os.Stderr), lvl))
	}

	metricsFile, err := os.OpenFile(filepath.Join(logDir, "metrics.jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open metrics file: %w", err)
	}
	metricsEncCfg := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		MessageKey:  "event",
		EncodeTime:  zapcore.ISO8601TimeEncoder,
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: nil,
	}
	metricsCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(metricsEncCfg),
		zapcore.AddSync(metricsFile),
		zapcore.InfoLevel,
	)

	mu.Lock()
	root = zap.New(zapcore.NewTee(cores...))
	metrics = zap.New(metricsCore)
	mu.Unlock()
	return nil
}

// For returns the logger for a category.
func For(category string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(category)
}

// RecordEvent appends one line to metrics.jsonl.
func RecordEvent(event string, fields ...zap.Field) {
	mu.RLock()
	m := metrics
	mu.RUnlock()
	m.Info(event, fields...)
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
	_ = metrics.Sync()
}
