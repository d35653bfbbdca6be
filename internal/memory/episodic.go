// Package memory implements the agent's three-tier memory:
// working (immediate context), episodic (current session), semantic
// (consolidated long-term facts in the vector store).
package memory

import (
	"sync"

	"ghost/internal/types"
)

// EpisodicBuffer is a sliding window over the current session.
type EpisodicBuffer struct {
	mu       sync.Mutex
	maxSize  int
	messages []types.Message
}

// NewEpisodicBuffer builds a buffer holding at most maxSize messages.
func NewEpisodicBuffer(maxSize int) *EpisodicBuffer {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &EpisodicBuffer{maxSize: maxSize}
}

// Add appends a message, evicting the oldest past capacity.
func (b *EpisodicBuffer) Add(msg types.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	if len(b.messages) > b.maxSize {
		b.messages = b.messages[len(b.messages)-b.maxSize:]
	}
}

// Recent returns the newest limit messages in order.
func (b *EpisodicBuffer) Recent(limit int) []types.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit > len(b.messages) {
		limit = len(b.messages)
	}
	out := make([]types.Message, limit)
	copy(out, b.messages[len(b.messages)-limit:])
	return out
}

// All returns a copy of the whole buffer.
func (b *EpisodicBuffer) All() []types.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Clear empties the buffer.
func (b *EpisodicBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

// Size returns the current message count.
func (b *EpisodicBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}
