package sensors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"ghost/internal/logging"
)

// FileSensor watches a notes directory and reports recently touched
// files, giving the agent awareness of what the owner is working on.
type FileSensor struct {
	dir     string
	watcher *fsnotify.Watcher
	log     *zap.Logger

	mu     sync.Mutex
	recent []fileTouch
}

type fileTouch struct {
	name string
	at   time.Time
}

// Touches older than this fall out of the context block.
const fileRecency = 30 * time.Minute

const maxTracked = 10

func NewFileSensor(dir string) (*FileSensor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &FileSensor{
		dir:     dir,
		watcher: watcher,
		log:     logging.For(logging.CategorySensor),
	}, nil
}

func (s *FileSensor) Name() string { return "file" }

// Run consumes watcher events until ctx is cancelled.
func (s *FileSensor) Run(ctx context.Context) {
	defer s.watcher.Close()
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				s.record(filepath.Base(ev.Name))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watch error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

func (s *FileSensor) record(name string) {
	if strings.HasPrefix(name, ".") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-touching a tracked file refreshes its timestamp.
	for i := range s.recent {
		if s.recent[i].name == name {
			s.recent[i].at = time.Now()
			return
		}
	}
	s.recent = append(s.recent, fileTouch{name: name, at: time.Now()})
	if len(s.recent) > maxTracked {
		s.recent = s.recent[len(s.recent)-maxTracked:]
	}
}

func (s *FileSensor) Context() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-fileRecency)
	var names []string
	kept := s.recent[:0]
	for _, t := range s.recent {
		if t.at.After(cutoff) {
			kept = append(kept, t)
			names = append(names, t.name)
		}
	}
	s.recent = kept

	if len(names) == 0 {
		return ""
	}
	return "Workspace Activity:\n- recently edited: " + strings.Join(names, ", ")
}
