package config

import "fmt"

// LLMConfig configures the inference backend.
type LLMConfig struct {
	BaseURL        string   `yaml:"base_url"`
	Model          string   `yaml:"model"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxRetries     int      `yaml:"max_retries"`
	Persona        GenOpts  `yaml:"persona"`
	Think          GenOpts  `yaml:"think"`
	StopTokens     []string `yaml:"stop_tokens"`
}

// GenOpts are per-stage generation options.
type GenOpts struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

func defaultLLM() LLMConfig {
	return LLMConfig{
		BaseURL:        "http://localhost:11434",
		Model:          "mistral-nemo",
		TimeoutSeconds: 60,
		MaxRetries:     3,
		Persona: GenOpts{
			Temperature: 0.72,
			MaxTokens:   150,
		},
		Think: GenOpts{
			Temperature: 0.3,
			MaxTokens:   600,
		},
		StopTokens: []string{"User:", "\nUser", "[INST]", "[/INST]"},
	}
}

func (c LLMConfig) validate() []error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, fmt.Errorf("llm.base_url must not be empty"))
	}
	if c.Model == "" {
		errs = append(errs, fmt.Errorf("llm.model must not be empty"))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_seconds must be positive, got %d", c.TimeoutSeconds))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.max_retries must not be negative, got %d", c.MaxRetries))
	}
	for _, o := range []struct {
		name string
		opts GenOpts
	}{{"persona", c.Persona}, {"think", c.Think}} {
		if o.opts.Temperature < 0 || o.opts.Temperature > 2 {
			errs = append(errs, fmt.Errorf("llm.%s.temperature out of range: %.2f", o.name, o.opts.Temperature))
		}
		if o.opts.MaxTokens <= 0 {
			errs = append(errs, fmt.Errorf("llm.%s.max_tokens must be positive, got %d", o.name, o.opts.MaxTokens))
		}
	}
	return errs
}
