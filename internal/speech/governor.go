// Package speech paces outgoing utterances so a wall of model output
// arrives as a sequence of human-sized chat messages.
package speech

import (
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"ghost/internal/config"
	"ghost/internal/logging"
)

// SplitToken lets the model mark explicit message boundaries.
const SplitToken = "<SPLIT>"

// Chunk is one outgoing message and the pause before sending it.
type Chunk struct {
	Text  string
	Delay time.Duration
}

// Governor segments utterances and computes typing-speed delays.
type Governor struct {
	cfg config.SpeechConfig
	log *zap.Logger

	// Injectable for deterministic tests.
	randFloat func() float64
}

func NewGovernor(cfg config.SpeechConfig) *Governor {
	return &Governor{
		cfg:       cfg,
		log:       logging.For(logging.CategorySpeech),
		randFloat: rand.Float64,
	}
}

// Pace segments text and attaches a delay to each chunk. The first
// chunk gets a shortened delay because inference time already covered
// most of the "thinking" pause.
func (g *Governor) Pace(text string) []Chunk {
	segments := g.Segment(text)
	chunks := make([]Chunk, 0, len(segments))
	for i, seg := range segments {
		delay := g.delayFor(seg)
		if i == 0 {
			delay = time.Duration(float64(delay) * 0.3)
		} else {
			delay += g.microPause()
		}
		chunks = append(chunks, Chunk{Text: seg, Delay: delay})
	}
	return chunks
}

// Segment splits text into chat-sized messages: explicit split tokens
// first, then newlines, then sentence packing, then a hard slice as the
// last resort.
func (g *Governor) Segment(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.Contains(text, SplitToken) {
		var out []string
		for _, part := range strings.Split(text, SplitToken) {
			out = append(out, g.Segment(part)...)
		}
		return out
	}

	if strings.Contains(text, "\n") {
		var out []string
		for _, line := range strings.Split(text, "\n") {
			out = append(out, g.Segment(line)...)
		}
		return out
	}

	if len(text) <= g.cfg.MaxChunkLength {
		return g.hardSlice([]string{text})
	}
	return g.hardSlice(g.packSentences(text))
}

// packSentences greedily packs sentences into chunks up to
// MaxChunkLength.
func (g *Governor) packSentences(text string) []string {
	sentences := splitSentences(text)

	var out []string
	var current strings.Builder
	for _, s := range sentences {
		if current.Len() > 0 && current.Len()+1+len(s) > g.cfg.MaxChunkLength {
			out = append(out, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// splitSentences cuts on sentence-ending punctuation, keeping the
// punctuation with its sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?', '~':
			// Consume runs like "!?" or "..." as one boundary.
			end := i + 1
			for end < len(text) && (text[end] == '.' || text[end] == '!' || text[end] == '?' || text[end] == '~') {
				end++
			}
			if s := strings.TrimSpace(text[start:end]); s != "" {
				out = append(out, s)
			}
			start = end
			i = end - 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// hardSlice chops anything still over the transport's hard limit.
func (g *Governor) hardSlice(segments []string) []string {
	var out []string
	for _, seg := range segments {
		for len(seg) > g.cfg.HardLimit {
			out = append(out, seg[:g.cfg.HardLimit])
			seg = seg[g.cfg.HardLimit:]
		}
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// delayFor models typing time: length over typing speed, jitter, and a
// flat per-message overhead.
func (g *Governor) delayFor(chunk string) time.Duration {
	charsPerSecond := g.cfg.WordsPerMinute * 5 / 60
	base := float64(len(chunk)) / charsPerSecond
	jitter := base * g.cfg.DelayVariance * (g.randFloat() - 0.5)
	overhead := 0.2 + 0.002*float64(len(chunk))

	seconds := base + jitter + overhead
	if seconds < g.cfg.MinDelaySeconds {
		seconds = g.cfg.MinDelaySeconds
	}
	return time.Duration(seconds * float64(time.Second))
}

func (g *Governor) microPause() time.Duration {
	seconds := 0.2 + 0.3*g.randFloat()
	return time.Duration(seconds * float64(time.Second))
}
