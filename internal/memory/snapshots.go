package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ghost/internal/persist"
	"ghost/internal/types"
)

type snapshot struct {
	Timestamp string          `json:"timestamp"`
	Working   []types.Message `json:"working"`
	Episodic  []types.Message `json:"episodic"`
}

// Snapshot writes the session buffers to a timestamped backup file and
// returns its path. The vector store persists itself; snapshots cover
// the tiers that otherwise live only in process memory.
func (h *Hierarchical) Snapshot(dir string) (string, error) {
	h.mu.Lock()
	working := make([]types.Message, len(h.working))
	copy(working, h.working)
	h.mu.Unlock()

	ts := time.Now().UTC().Format("2006-01-02T15-04-05Z")
	path := filepath.Join(dir, "snapshot_"+ts+".json")

	snap := snapshot{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Working:   working,
		Episodic:  h.episodic.All(),
	}
	if err := persist.SaveJSON(path, snap); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	h.log.Info("memory snapshot written", zap.String("path", path))
	return path, nil
}

// RestoreLatest rehydrates the session buffers from the newest snapshot
// in dir. A missing or empty directory is a clean start, not an error.
func (h *Hierarchical) RestoreLatest(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "snapshot_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	latest := filepath.Join(dir, names[len(names)-1])

	var snap snapshot
	if err := persist.LoadJSON(latest, &snap); err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", latest, err)
	}

	h.mu.Lock()
	h.working = snap.Working
	if len(h.working) > h.cfg.WorkingSize {
		h.working = h.working[len(h.working)-h.cfg.WorkingSize:]
	}
	h.mu.Unlock()

	h.episodic.Clear()
	for _, m := range snap.Episodic {
		h.episodic.Add(m)
	}

	h.log.Info("restored memory snapshot",
		zap.String("path", latest),
		zap.Int("working", len(snap.Working)),
		zap.Int("episodic", len(snap.Episodic)))
	return nil
}
