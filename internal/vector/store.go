// Package vector is the agent's semantic memory index.
//
// Messages are embedded and stored in a persistent chromem collection.
// Retrieval over-fetches candidates and reranks them by a blend of
// semantic similarity and recency, so old near-duplicates do not drown
// out what happened this week. Without an embedding engine the store
// degrades to in-memory substring search.
package vector

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"ghost/internal/embedding"
	"ghost/internal/logging"
	"ghost/internal/types"
)

const (
	collectionName   = "ghost_memories"
	fallbackCapacity = 1000
	recencyHalfLife  = 7 * 24 * time.Hour
)

// Store indexes messages for semantic recall.
type Store struct {
	col        *chromem.Collection
	timeWeight float64
	log        *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	fallback []types.Message
}

// NewStore opens the persistent collection under dir. engine may be nil,
// selecting fallback mode.
func NewStore(dir string, engine embedding.Engine, timeWeight float64) (*Store, error) {
	s := &Store{
		timeWeight: timeWeight,
		log:        logging.For(logging.CategoryMemory),
		now:        time.Now,
	}

	if engine == nil {
		s.log.Warn("no embedding engine, semantic memory degraded to substring search")
		return s, nil
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dir, "chromem.gob"), false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	embedFunc := func(ctx context.Context, text string) ([]float32, error) {
		return engine.Embed(ctx, text)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector collection: %w", err)
	}
	s.col = col
	s.log.Info("vector store ready",
		zap.String("engine", engine.Name()),
		zap.Int("documents", col.Count()))
	return s, nil
}

// Add indexes one message.
func (s *Store) Add(ctx context.Context, msg types.Message) error {
	if s.col == nil {
		s.mu.Lock()
		s.fallback = append(s.fallback, msg)
		if len(s.fallback) > fallbackCapacity {
			s.fallback = s.fallback[len(s.fallback)-fallbackCapacity:]
		}
		s.mu.Unlock()
		return nil
	}

	if strings.TrimSpace(msg.Content) == "" {
		return nil
	}

	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	meta := map[string]string{
		"role":      msg.Role,
		"timestamp": msg.Timestamp.UTC().Format(time.RFC3339),
	}
	for k, v := range msg.Metadata {
		meta[k] = fmt.Sprint(v)
	}

	err := s.col.AddDocument(ctx, chromem.Document{
		ID:       id,
		Content:  msg.Content,
		Metadata: meta,
	})
	if err != nil {
		return fmt.Errorf("failed to index message: %w", err)
	}
	return nil
}

// Search returns the best matches for query, reranked by recency.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]types.Message, error) {
	if limit <= 0 {
		limit = 5
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if s.col == nil {
		return s.searchFallback(query, limit), nil
	}

	// Over-fetch so the recency rerank has something to reorder.
	n := limit * 3
	if count := s.col.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := s.col.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	type scored struct {
		msg   types.Message
		score float64
	}
	candidates := make([]scored, 0, len(results))
	for _, r := range results {
		msg := types.Message{
			ID:       r.ID,
			Role:     r.Metadata["role"],
			Content:  r.Content,
			Metadata: map[string]any{},
		}
		if ts, err := time.Parse(time.RFC3339, r.Metadata["timestamp"]); err == nil {
			msg.Timestamp = ts
		}
		for k, v := range r.Metadata {
			if k != "role" && k != "timestamp" {
				msg.Metadata[k] = v
			}
		}

		score := (1-s.timeWeight)*float64(r.Similarity) + s.timeWeight*s.recency(msg.Timestamp)
		candidates = append(candidates, scored{msg: msg, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]types.Message, len(candidates))
	for i, c := range candidates {
		out[i] = c.msg
	}
	return out, nil
}

// recency maps message age onto (0, 1] with a 7 day half-life.
func (s *Store) recency(ts time.Time) float64 {
	if ts.IsZero() {
		return 0.5
	}
	age := s.now().Sub(ts).Seconds()
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, age/recencyHalfLife.Seconds())
}

func (s *Store) searchFallback(query string, limit int) []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(query)
	var out []types.Message
	for _, msg := range s.fallback {
		if strings.Contains(strings.ToLower(msg.Content), lower) {
			out = append(out, msg)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Count returns the number of indexed documents.
func (s *Store) Count() int {
	if s.col == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.fallback)
	}
	return s.col.Count()
}

// FallbackMode reports whether the store runs without embeddings.
func (s *Store) FallbackMode() bool { return s.col == nil }
