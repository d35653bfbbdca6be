// Package llm defines the inference backend contract.
package llm

import (
	"context"

	"ghost/internal/types"
)

// Options are per-request generation parameters.
type Options struct {
	Temperature float64
	MaxTokens   int
	Stop        []string
	JSONMode    bool
}

// Client is the inference backend. Generate blocks for one completion;
// Unload releases the model's memory so the host can reclaim it during
// hibernation.
type Client interface {
	Generate(ctx context.Context, messages []types.Message, opts Options) (string, error)
	Unload(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
