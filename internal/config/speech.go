package config

import "fmt"

// SpeechConfig tunes output pacing.
type SpeechConfig struct {
	WordsPerMinute  float64 `yaml:"words_per_minute"`
	MaxChunkLength  int     `yaml:"max_chunk_length"`
	HardLimit       int     `yaml:"hard_limit"`
	MinDelaySeconds float64 `yaml:"min_delay_seconds"`
	DelayVariance   float64 `yaml:"delay_variance"`
}

func defaultSpeech() SpeechConfig {
	return SpeechConfig{
		WordsPerMinute:  280,
		MaxChunkLength:  400,
		HardLimit:       1900,
		MinDelaySeconds: 0.8,
		DelayVariance:   0.2,
	}
}

func (c SpeechConfig) validate() []error {
	var errs []error
	if c.WordsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("speech.words_per_minute must be positive, got %.1f", c.WordsPerMinute))
	}
	if c.MaxChunkLength <= 0 {
		errs = append(errs, fmt.Errorf("speech.max_chunk_length must be positive, got %d", c.MaxChunkLength))
	}
	if c.HardLimit < c.MaxChunkLength {
		errs = append(errs, fmt.Errorf("speech.hard_limit (%d) must be at least max_chunk_length (%d)",
			c.HardLimit, c.MaxChunkLength))
	}
	return errs
}
