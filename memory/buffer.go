// Package memory keeps bounded conversation history per session.
package memory

import (
	"strings"
	"sync"

	"github.com/poiesic/flowmate/core"
)

// DefaultMaxTurns is the default buffer capacity.
const DefaultMaxTurns = 5

// Buffer is a fixed-capacity turn history; the oldest turn is evicted
// first. It is safe for concurrent use, but concurrent writers to one
// session get last-writer-wins ordering.
type Buffer struct {
	mu    sync.Mutex
	turns []core.ConversationTurn
	start int
	size  int
}

// NewBuffer creates a buffer holding up to capacity turns.
// A non-positive capacity uses DefaultMaxTurns.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultMaxTurns
	}
	return &Buffer{turns: make([]core.ConversationTurn, capacity)}
}

// Append records a turn, evicting the oldest when full.
func (b *Buffer) Append(query, response string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	turn := core.ConversationTurn{Query: query, Response: response}
	if b.size < len(b.turns) {
		b.turns[(b.start+b.size)%len(b.turns)] = turn
		b.size++
		return
	}
	b.turns[b.start] = turn
	b.start = (b.start + 1) % len(b.turns)
}

// Turns returns the held turns, oldest first.
func (b *Buffer) Turns() []core.ConversationTurn {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]core.ConversationTurn, b.size)
	for i := range b.size {
		out[i] = b.turns[(b.start+i)%len(b.turns)]
	}
	return out
}

// Formatted renders the history for a prompt, or "" when empty.
func (b *Buffer) Formatted() string {
	turns := b.Turns()
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, "User: "+t.Query+"\nAssistant: "+t.Response)
	}
	return strings.Join(lines, "\n")
}

// Len returns the number of held turns.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.turns)
}

// Clear drops every turn.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.turns)
	b.start, b.size = 0, 0
}
