package belief

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "beliefs.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.Put("user", "name", "Sagun", 1.0, SourceUser)
	if err != nil || !ok {
		t.Fatalf("Put failed: ok=%v err=%v", ok, err)
	}

	got, found, err := s.Get("user", "name")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || got != "Sagun" {
		t.Errorf("Get = (%q, %v)", got, found)
	}

	_, found, err = s.Get("user", "age")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("unknown relation should not be found")
	}
}

func TestPutOverwritesSameEntityRelation(t *testing.T) {
	s := newTestStore(t)

	s.Put("user", "lives_in", "Berlin", 0.9, SourceInference)
	s.Put("user", "lives_in", "Tokyo", 0.95, SourceInference)

	got, _, _ := s.Get("user", "lives_in")
	if got != "Tokyo" {
		t.Errorf("expected overwrite, got %q", got)
	}

	n, _ := s.Count()
	if n != 1 {
		t.Errorf("UNIQUE(entity, relation) violated, count = %d", n)
	}
}

func TestGenesisBeliefsAreImmutable(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Put("agent", "is_ai", "true", 1.0, SourceGenesis); err != nil {
		t.Fatal(err)
	}

	ok, err := s.Put("agent", "is_ai", "false", 1.0, SourceInference)
	if err != nil {
		t.Fatalf("rejected write should not error: %v", err)
	}
	if ok {
		t.Fatal("inference write overwrote a genesis belief")
	}

	got, _, _ := s.Get("agent", "is_ai")
	if got != "true" {
		t.Errorf("genesis value corrupted: %q", got)
	}

	// Genesis source may rewrite its own facts.
	ok, err = s.Put("agent", "is_ai", "true", 1.0, SourceGenesis)
	if err != nil || !ok {
		t.Errorf("genesis rewrite failed: ok=%v err=%v", ok, err)
	}
}

func TestVerify(t *testing.T) {
	s := newTestStore(t)
	s.Put("user", "name", "Sagun", 1.0, SourceUser)

	cases := []struct {
		entity, relation, value string
		want                    bool
	}{
		{"user", "name", "Sagun", true},
		{"user", "name", "sagun", true}, // case-insensitive
		{"user", "name", "Alex", false},
		{"user", "hometown", "anywhere", true}, // unknown passes
	}
	for _, c := range cases {
		got, err := s.Verify(c.entity, c.relation, c.value)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if got != c.want {
			t.Errorf("Verify(%s, %s, %s) = %v, want %v", c.entity, c.relation, c.value, got, c.want)
		}
	}
}

func TestGetAllAndSearch(t *testing.T) {
	s := newTestStore(t)
	s.Put("user", "name", "Sagun", 1.0, SourceUser)
	s.Put("user", "likes", "cats", 0.8, SourceInference)
	s.Put("agent", "name", "Korone", 1.0, SourceGenesis)

	all, err := s.GetAll("user")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["name"] != "Sagun" || all["likes"] != "cats" {
		t.Errorf("GetAll = %v", all)
	}

	results, err := s.Search("", "name", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("Search by relation returned %d results", len(results))
	}

	results, err = s.Search("agent", "name", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Value != "Korone" {
		t.Errorf("Search by entity+relation = %v", results)
	}
}

func TestExportAndSummary(t *testing.T) {
	s := newTestStore(t)
	s.Put("agent", "name", "Korone", 1.0, SourceGenesis)
	s.Put("user", "name", "Sagun", 1.0, SourceUser)

	out := filepath.Join(t.TempDir(), "graph.json")
	if err := s.Export(out); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	summary, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary == "" {
		t.Error("empty summary")
	}
}
