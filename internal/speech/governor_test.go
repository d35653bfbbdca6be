package speech

import (
	"strings"
	"testing"
	"time"

	"ghost/internal/config"
)

func newTestGovernor() *Governor {
	g := NewGovernor(config.SpeechConfig{
		WordsPerMinute:  280,
		MaxChunkLength:  400,
		HardLimit:       1900,
		MinDelaySeconds: 0.4,
		DelayVariance:   0.3,
	})
	g.randFloat = func() float64 { return 0.5 } // zero jitter
	return g
}

func TestSegmentSplitTokens(t *testing.T) {
	g := newTestGovernor()
	got := g.Segment("first thought<SPLIT>second thought<SPLIT>third")
	want := []string{"first thought", "second thought", "third"}
	if len(got) != 3 {
		t.Fatalf("segments = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSegmentNewlines(t *testing.T) {
	g := newTestGovernor()
	got := g.Segment("line one\n\nline two\nline three")
	if len(got) != 3 {
		t.Fatalf("segments = %v", got)
	}
	if got[0] != "line one" || got[2] != "line three" {
		t.Errorf("segments = %v", got)
	}
}

func TestSegmentPacksSentences(t *testing.T) {
	g := newTestGovernor()
	g.cfg.MaxChunkLength = 40

	got := g.Segment("Short one. Another short one! A third sentence here? And a fourth~")
	if len(got) < 2 {
		t.Fatalf("long text not split: %v", got)
	}
	for _, seg := range got {
		if len(seg) > 40 {
			t.Errorf("chunk over limit (%d): %q", len(seg), seg)
		}
	}
	// Sentences stay intact with their punctuation.
	if !strings.HasSuffix(got[0], ".") && !strings.HasSuffix(got[0], "!") {
		t.Errorf("first chunk = %q", got[0])
	}
}

func TestSegmentHardSlice(t *testing.T) {
	g := newTestGovernor()
	g.cfg.MaxChunkLength = 50
	g.cfg.HardLimit = 100

	// No sentence punctuation at all, longer than the hard limit.
	got := g.Segment(strings.Repeat("a", 250))
	if len(got) != 3 {
		t.Fatalf("segments = %d", len(got))
	}
	if len(got[0]) != 100 || len(got[2]) != 50 {
		t.Errorf("slice lengths = %d, %d, %d", len(got[0]), len(got[1]), len(got[2]))
	}
}

func TestSegmentEmpty(t *testing.T) {
	g := newTestGovernor()
	if got := g.Segment("   "); got != nil {
		t.Errorf("segments = %v", got)
	}
}

func TestPaceDelays(t *testing.T) {
	g := newTestGovernor()
	chunks := g.Pace("first message\nsecond message that is a bit longer than the first")
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d", len(chunks))
	}

	// chars/s = 280*5/60 ≈ 23.3. First chunk (13 chars):
	// base ≈ 0.557, overhead = 0.226, total ≈ 0.783, ×0.3 ≈ 0.235 s.
	first := chunks[0].Delay
	if first < 200*time.Millisecond || first > 280*time.Millisecond {
		t.Errorf("first delay = %v", first)
	}

	// Second chunk uses the full delay plus a micro-pause, so it is
	// well above the first.
	if chunks[1].Delay < 2*first {
		t.Errorf("second delay %v not slower than first %v", chunks[1].Delay, first)
	}
}

func TestPaceRespectsMinimumDelay(t *testing.T) {
	g := newTestGovernor()
	g.cfg.MinDelaySeconds = 1.5

	chunks := g.Pace("hi\nyo")
	// Second chunk: min delay plus micro-pause (0.35 s at rand=0.5).
	if chunks[1].Delay < 1850*time.Millisecond {
		t.Errorf("delay = %v, want >= 1.85s", chunks[1].Delay)
	}
}
