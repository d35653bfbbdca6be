package config

import "fmt"

// AutonomyConfig tunes proactive behavior.
type AutonomyConfig struct {
	Enabled              bool    `yaml:"enabled"`
	MinIntervalMinutes   int     `yaml:"min_interval_minutes"`
	TriggerProbability   float64 `yaml:"trigger_probability"`
	CheckIntervalSeconds int     `yaml:"check_interval_seconds"`
}

func defaultAutonomy() AutonomyConfig {
	return AutonomyConfig{
		Enabled:              true,
		MinIntervalMinutes:   60,
		TriggerProbability:   0.4,
		CheckIntervalSeconds: 30,
	}
}

func (c AutonomyConfig) validate() []error {
	var errs []error
	if c.MinIntervalMinutes < 0 {
		errs = append(errs, fmt.Errorf("autonomy.min_interval_minutes must not be negative, got %d", c.MinIntervalMinutes))
	}
	if c.TriggerProbability < 0 || c.TriggerProbability > 1 {
		errs = append(errs, fmt.Errorf("autonomy.trigger_probability out of range: %.2f", c.TriggerProbability))
	}
	if c.CheckIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("autonomy.check_interval_seconds must be positive, got %d", c.CheckIntervalSeconds))
	}
	return errs
}
