package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ghost/internal/config"
	"ghost/internal/logging"
	"ghost/internal/types"
	"ghost/internal/vector"
)

// Context is what the think stage sees: immediate window, session tail,
// and relevant long-term recall.
type Context struct {
	Working  []types.Message
	Episodic []types.Message
	Semantic []types.Message
}

// Hierarchical ties the three memory tiers together.
type Hierarchical struct {
	cfg        config.MemoryConfig
	episodic   *EpisodicBuffer
	vectors    *vector.Store
	summarizer *Summarizer
	log        *zap.Logger

	mu              sync.Mutex
	working         []types.Message
	lastInteraction time.Time
}

// NewHierarchical wires the tiers. summarizer may run without an LLM.
func NewHierarchical(cfg config.MemoryConfig, vectors *vector.Store, summarizer *Summarizer) *Hierarchical {
	return &Hierarchical{
		cfg:        cfg,
		episodic:   NewEpisodicBuffer(cfg.EpisodicBufferSize),
		vectors:    vectors,
		summarizer: summarizer,
		log:        logging.For(logging.CategoryMemory),
	}
}

// Add routes a message through the tiers: always into working and
// episodic, into semantic only past the importance gate. Crossing the
// consolidation threshold folds the session into a summary.
func (h *Hierarchical) Add(ctx context.Context, msg types.Message) error {
	h.mu.Lock()
	h.working = append(h.working, msg)
	if len(h.working) > h.cfg.WorkingSize {
		h.working = h.working[len(h.working)-h.cfg.WorkingSize:]
	}
	h.lastInteraction = time.Now().UTC()
	h.mu.Unlock()

	h.episodic.Add(msg)

	if h.episodic.Size() >= h.cfg.ConsolidationThreshold {
		if err := h.consolidate(ctx); err != nil {
			h.log.Error("consolidation failed", zap.Error(err))
		}
	}

	score := ScoreImportance(msg)
	if score < h.cfg.ImportanceThreshold {
		h.log.Debug("message below importance threshold, session-only",
			zap.Float64("score", score))
		return nil
	}

	indexed := msg.WithMeta("importance", fmt.Sprintf("%.2f", score))
	if err := h.vectors.Add(ctx, indexed); err != nil {
		return fmt.Errorf("failed to store semantic memory: %w", err)
	}
	return nil
}

// consolidate summarizes the episodic buffer into semantic memory and
// keeps only the recent tail of the session.
func (h *Hierarchical) consolidate(ctx context.Context) error {
	episodes := h.episodic.All()
	if len(episodes) == 0 {
		return nil
	}
	h.log.Info("consolidating episodic memory", zap.Int("messages", len(episodes)))

	summary := h.summarizer.Summarize(ctx, episodes)

	summaryMsg := types.NewMessage(types.RoleSystem, "[MEMORY SUMMARY]\n"+summary)
	summaryMsg.Metadata["type"] = "summary"
	summaryMsg.Metadata["importance"] = "0.90"
	summaryMsg.Metadata["message_count"] = fmt.Sprint(len(episodes))

	if err := h.vectors.Add(ctx, summaryMsg); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}

	recent := h.episodic.Recent(10)
	h.episodic.Clear()
	for _, m := range recent {
		h.episodic.Add(m)
	}
	return nil
}

// GetContext assembles the full memory view for a query.
func (h *Hierarchical) GetContext(ctx context.Context, query string) (Context, error) {
	h.mu.Lock()
	working := make([]types.Message, len(h.working))
	copy(working, h.working)
	h.mu.Unlock()

	semantic, err := h.vectors.Search(ctx, query, h.cfg.SearchLimit)
	if err != nil {
		h.log.Error("semantic recall failed", zap.Error(err))
		semantic = nil
	}

	return Context{
		Working:  working,
		Episodic: h.episodic.Recent(15),
		Semantic: semantic,
	}, nil
}

// Working returns a copy of working memory.
func (h *Hierarchical) Working() []types.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.Message, len(h.working))
	copy(out, h.working)
	return out
}

// LastInteraction reports when a message last entered memory.
func (h *Hierarchical) LastInteraction() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastInteraction
}

// Stats summarizes the memory state for health checks.
func (h *Hierarchical) Stats() map[string]any {
	h.mu.Lock()
	working := len(h.working)
	h.mu.Unlock()
	return map[string]any{
		"working_messages":  working,
		"episodic_messages": h.episodic.Size(),
		"semantic_memories": h.vectors.Count(),
		"fallback_mode":     h.vectors.FallbackMode(),
	}
}
