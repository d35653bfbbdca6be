package config

import "fmt"

// EmotionConfig tunes the PAD emotion service.
type EmotionConfig struct {
	DecayRate            float64 `yaml:"decay_rate"`
	DecayIntervalSeconds int     `yaml:"decay_interval_seconds"`
	CircadianEnabled     bool    `yaml:"circadian_enabled"`
}

func defaultEmotion() EmotionConfig {
	return EmotionConfig{
		DecayRate:            0.05,
		DecayIntervalSeconds: 300,
		CircadianEnabled:     true,
	}
}

func (c EmotionConfig) validate() []error {
	var errs []error
	if c.DecayRate < 0 || c.DecayRate > 1 {
		errs = append(errs, fmt.Errorf("emotion.decay_rate out of range: %.2f", c.DecayRate))
	}
	if c.DecayIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("emotion.decay_interval_seconds must be positive, got %d", c.DecayIntervalSeconds))
	}
	return errs
}
