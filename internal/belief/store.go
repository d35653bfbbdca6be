// Package belief stores the agent's knowledge graph.
//
// Facts are (entity, relation, value) triplets in SQLite. Genesis facts
// define the agent's identity and are immutable: inference writes against
// them are rejected, which is what keeps the agent from talking itself
// into being human.
package belief

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"ghost/internal/logging"
	"ghost/internal/persist"
)

// SourceGenesis marks immutable identity facts.
const (
	SourceGenesis   = "genesis"
	SourceInference = "inference"
	SourceUser      = "user"
)

// Belief is one stored triplet.
type Belief struct {
	Entity     string  `json:"entity"`
	Relation   string  `json:"relation"`
	Value      string  `json:"value"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Store is the SQLite-backed triplet store.
type Store struct {
	mu  sync.RWMutex
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// NewStore opens (creating if needed) the belief database.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create belief directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open belief database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		db:  db,
		log: logging.For(logging.CategoryBelief),
		now: time.Now,
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS beliefs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity TEXT NOT NULL,
		relation TEXT NOT NULL,
		value TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		confidence REAL DEFAULT 1.0,
		source TEXT,
		UNIQUE(entity, relation)
	);
	CREATE INDEX IF NOT EXISTS idx_beliefs_entity ON beliefs(entity);
	CREATE INDEX IF NOT EXISTS idx_beliefs_relation ON beliefs(relation);
	CREATE INDEX IF NOT EXISTS idx_beliefs_source ON beliefs(source);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize belief schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores or updates a triplet. Returns false without error when the
// write is rejected because it targets a genesis fact.
func (s *Store) Put(entity, relation, value string, confidence float64, source string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if source != SourceGenesis {
		var existingSource sql.NullString
		err := s.db.QueryRow(
			"SELECT source FROM beliefs WHERE entity = ? AND relation = ?",
			entity, relation,
		).Scan(&existingSource)
		switch {
		case err == sql.ErrNoRows:
			// new fact
		case err != nil:
			return false, fmt.Errorf("failed to check belief source: %w", err)
		case existingSource.String == SourceGenesis:
			s.log.Warn("rejected write against genesis belief",
				zap.String("entity", entity),
				zap.String("relation", relation),
				zap.String("value", value))
			return false, nil
		}
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO beliefs (entity, relation, value, timestamp, confidence, source)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entity, relation, value, s.now().UTC().Format(time.RFC3339), confidence, source)
	if err != nil {
		return false, fmt.Errorf("failed to store belief: %w", err)
	}
	return true, nil
}

// Get returns the value for (entity, relation), or ok=false when unknown.
func (s *Store) Get(entity, relation string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(
		"SELECT value FROM beliefs WHERE entity = ? AND relation = ?",
		entity, relation,
	).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("failed to query belief: %w", err)
	}
	return value, true, nil
}

// Verify reports whether a claim is consistent with the stored graph.
// Unknown facts pass; known facts must match case-insensitively.
func (s *Store) Verify(entity, relation, value string) (bool, error) {
	stored, ok, err := s.Get(entity, relation)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return strings.EqualFold(stored, value), nil
}

// GetAll returns every relation→value pair for an entity.
func (s *Store) GetAll(entity string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT relation, value FROM beliefs WHERE entity = ? ORDER BY timestamp DESC",
		entity)
	if err != nil {
		return nil, fmt.Errorf("failed to list beliefs: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var relation, value string
		if err := rows.Scan(&relation, &value); err != nil {
			continue
		}
		out[relation] = value
	}
	return out, rows.Err()
}

// Search filters triplets by entity and/or relation, newest first.
// Empty arguments match everything.
func (s *Store) Search(entity, relation string, limit int) ([]Belief, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	query := "SELECT entity, relation, value, timestamp, confidence, source FROM beliefs"
	var conds []string
	var args []any
	if entity != "" {
		conds = append(conds, "entity = ?")
		args = append(args, entity)
	}
	if relation != "" {
		conds = append(conds, "relation = ?")
		args = append(args, relation)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search beliefs: %w", err)
	}
	defer rows.Close()

	var out []Belief
	for rows.Next() {
		var b Belief
		if err := rows.Scan(&b.Entity, &b.Relation, &b.Value, &b.Timestamp, &b.Confidence, &b.Source); err != nil {
			continue
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Count returns the number of stored triplets.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM beliefs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count beliefs: %w", err)
	}
	return n, nil
}

// Summary renders a short human-readable status.
func (s *Store) Summary() (string, error) {
	total, err := s.Count()
	if err != nil {
		return "", err
	}
	recent, err := s.Search("", "", 10)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Belief System Status:\n- Total beliefs: %d\n- Recent:\n", total)
	for _, belief := range recent {
		fmt.Fprintf(&b, "  (%s, %s, %s)\n", belief.Entity, belief.Relation, belief.Value)
	}
	return b.String(), nil
}

// Export writes every triplet to a JSON file.
func (s *Store) Export(outputPath string) error {
	s.mu.RLock()
	rows, err := s.db.Query(
		"SELECT entity, relation, value, timestamp, confidence, source FROM beliefs ORDER BY entity, relation")
	if err != nil {
		s.mu.RUnlock()
		return fmt.Errorf("failed to read beliefs for export: %w", err)
	}
	var beliefs []Belief
	for rows.Next() {
		var b Belief
		if err := rows.Scan(&b.Entity, &b.Relation, &b.Value, &b.Timestamp, &b.Confidence, &b.Source); err != nil {
			continue
		}
		beliefs = append(beliefs, b)
	}
	rows.Close()
	s.mu.RUnlock()

	data, err := json.MarshalIndent(beliefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal beliefs: %w", err)
	}
	if err := persist.WriteFileAtomic(outputPath, data); err != nil {
		return err
	}
	s.log.Info("exported beliefs", zap.Int("count", len(beliefs)), zap.String("path", outputPath))
	return nil
}
