// Package config defines the agent's configuration.
//
// One struct per concern, yaml tags throughout, loaded from a single
// ghost.yaml with environment overrides on top. Validation collects every
// problem instead of stopping at the first so a bad config surfaces all
// its errors in one run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the agent daemon.
type Config struct {
	Agent      AgentConfig      `yaml:"agent"`
	LLM        LLMConfig        `yaml:"llm"`
	Memory     MemoryConfig     `yaml:"memory"`
	Emotion    EmotionConfig    `yaml:"emotion"`
	Autonomy   AutonomyConfig   `yaml:"autonomy"`
	Cryostasis CryostasisConfig `yaml:"cryostasis"`
	Speech     SpeechConfig     `yaml:"speech"`
	Transport  TransportConfig  `yaml:"transport"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AgentConfig names the agent and anchors its state directory.
type AgentConfig struct {
	Name     string `yaml:"name"`
	DataDir  string `yaml:"data_dir"`
	UserName string `yaml:"user_name"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Name:     "Korone",
			DataDir:  "data",
			UserName: "User",
		},
		LLM:        defaultLLM(),
		Memory:     defaultMemory(),
		Emotion:    defaultEmotion(),
		Autonomy:   defaultAutonomy(),
		Cryostasis: defaultCryostasis(),
		Speech:     defaultSpeech(),
		Transport:  defaultTransport(),
		Logging: LoggingConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Load reads path (when it exists) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults only
		default:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GHOST_DATA_DIR"); v != "" {
		c.Agent.DataDir = v
	}
	if v := os.Getenv("GHOST_AGENT_NAME"); v != "" {
		c.Agent.Name = v
	}
	if v := os.Getenv("GHOST_OLLAMA_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("GHOST_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("GHOST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GHOST_GEMINI_API_KEY"); v != "" {
		c.Memory.Embedding.APIKey = v
	}
	if v := os.Getenv("GHOST_AUTONOMY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Autonomy.Enabled = b
		}
	}
}

// Validate returns every configuration error found.
func (c *Config) Validate() []error {
	var errs []error

	if c.Agent.Name == "" {
		errs = append(errs, fmt.Errorf("agent.name must not be empty"))
	}
	if c.Agent.DataDir == "" {
		errs = append(errs, fmt.Errorf("agent.data_dir must not be empty"))
	}
	errs = append(errs, c.LLM.validate()...)
	errs = append(errs, c.Memory.validate()...)
	errs = append(errs, c.Emotion.validate()...)
	errs = append(errs, c.Autonomy.validate()...)
	errs = append(errs, c.Cryostasis.validate()...)
	errs = append(errs, c.Speech.validate()...)
	return errs
}

// Path helpers keep the on-disk layout in one place.

func (c *Config) BeliefDBPath() string {
	return filepath.Join(c.Agent.DataDir, "beliefs.db")
}

func (c *Config) EmotionStatePath() string {
	return filepath.Join(c.Agent.DataDir, "emotional_state.json")
}

func (c *Config) BDIStatePath() string {
	return filepath.Join(c.Agent.DataDir, "bdi_state.json")
}

func (c *Config) SnapshotDir() string {
	return filepath.Join(c.Agent.DataDir, "memory_snapshots")
}

func (c *Config) VectorDir() string {
	return filepath.Join(c.Agent.DataDir, "vectors")
}

func (c *Config) LogDir() string {
	return filepath.Join(c.Agent.DataDir, "logs")
}
