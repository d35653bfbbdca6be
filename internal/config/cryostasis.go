package config

import "fmt"

// CryostasisConfig tunes the resource gater.
type CryostasisConfig struct {
	Enabled             bool     `yaml:"enabled"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	ProcessBlacklist    []string `yaml:"process_blacklist"`
	GPUThresholdPercent float64  `yaml:"gpu_threshold_percent"`
	CPUThresholdPercent float64  `yaml:"cpu_threshold_percent"`
	VRAMThresholdMB     float64  `yaml:"vram_threshold_mb"`
	WakeCooldownSeconds int      `yaml:"wake_cooldown_seconds"`
}

func defaultCryostasis() CryostasisConfig {
	return CryostasisConfig{
		Enabled:             true,
		PollIntervalSeconds: 5,
		ProcessBlacklist:    []string{"steam", "blender", "obs", "unity", "unreal"},
		GPUThresholdPercent: 75,
		CPUThresholdPercent: 60,
		VRAMThresholdMB:     14000,
		WakeCooldownSeconds: 10,
	}
}

func (c CryostasisConfig) validate() []error {
	var errs []error
	if c.PollIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cryostasis.poll_interval_seconds must be positive, got %d", c.PollIntervalSeconds))
	}
	if c.GPUThresholdPercent < 0 || c.GPUThresholdPercent > 100 {
		errs = append(errs, fmt.Errorf("cryostasis.gpu_threshold_percent out of range: %.1f", c.GPUThresholdPercent))
	}
	if c.CPUThresholdPercent < 0 || c.CPUThresholdPercent > 100 {
		errs = append(errs, fmt.Errorf("cryostasis.cpu_threshold_percent out of range: %.1f", c.CPUThresholdPercent))
	}
	if c.WakeCooldownSeconds < 0 {
		errs = append(errs, fmt.Errorf("cryostasis.wake_cooldown_seconds must not be negative, got %d", c.WakeCooldownSeconds))
	}
	return errs
}
