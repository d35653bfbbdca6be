package config

import "fmt"

// MemoryConfig configures the hierarchical memory system.
type MemoryConfig struct {
	WorkingSize            int             `yaml:"working_size"`
	EpisodicBufferSize     int             `yaml:"episodic_buffer_size"`
	ConsolidationThreshold int             `yaml:"consolidation_threshold"`
	ImportanceThreshold    float64         `yaml:"importance_threshold"`
	SearchLimit            int             `yaml:"search_limit"`
	TimeWeight             float64         `yaml:"time_weight"`
	SnapshotIntervalMin    int             `yaml:"snapshot_interval_minutes"`
	Embedding              EmbeddingConfig `yaml:"embedding"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "ollama", "genai" or "none"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
}

func defaultMemory() MemoryConfig {
	return MemoryConfig{
		WorkingSize:            10,
		EpisodicBufferSize:     50,
		ConsolidationThreshold: 40,
		ImportanceThreshold:    0.4,
		SearchLimit:            8,
		TimeWeight:             0.3,
		SnapshotIntervalMin:    30,
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
	}
}

func (c MemoryConfig) validate() []error {
	var errs []error
	if c.WorkingSize <= 0 {
		errs = append(errs, fmt.Errorf("memory.working_size must be positive, got %d", c.WorkingSize))
	}
	if c.EpisodicBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("memory.episodic_buffer_size must be positive, got %d", c.EpisodicBufferSize))
	}
	if c.ConsolidationThreshold >= c.EpisodicBufferSize {
		errs = append(errs, fmt.Errorf("memory.consolidation_threshold (%d) must be below episodic_buffer_size (%d)",
			c.ConsolidationThreshold, c.EpisodicBufferSize))
	}
	if c.ImportanceThreshold < 0 || c.ImportanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("memory.importance_threshold out of range: %.2f", c.ImportanceThreshold))
	}
	if c.TimeWeight < 0 || c.TimeWeight > 1 {
		errs = append(errs, fmt.Errorf("memory.time_weight out of range: %.2f", c.TimeWeight))
	}
	switch c.Embedding.Provider {
	case "ollama", "genai", "none":
	default:
		errs = append(errs, fmt.Errorf("memory.embedding.provider unknown: %q", c.Embedding.Provider))
	}
	return errs
}
