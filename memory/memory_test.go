package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/flowmate/core"
)

func TestBuffer_EvictsOldestFirst(t *testing.T) {
	b := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []core.ConversationTurn{
		{Query: "q3", Response: "a3"},
		{Query: "q4", Response: "a4"},
		{Query: "q5", Response: "a5"},
	}, b.Turns())
}

func TestBuffer_DefaultCapacity(t *testing.T) {
	b := NewBuffer(0)
	assert.Equal(t, DefaultMaxTurns, b.Cap())

	for i := range 7 {
		b.Append(fmt.Sprint(i), "")
	}
	turns := b.Turns()
	require.Len(t, turns, DefaultMaxTurns)
	assert.Equal(t, "2", turns[0].Query)
	assert.Equal(t, "6", turns[4].Query)
}

func TestBuffer_Formatted(t *testing.T) {
	b := NewBuffer(5)
	assert.Empty(t, b.Formatted())

	b.Append("연차는 며칠인가요?", "15일입니다.")
	b.Append("신청은요?", "인사 시스템에서 합니다.")

	assert.Equal(t,
		"User: 연차는 며칠인가요?\nAssistant: 15일입니다.\nUser: 신청은요?\nAssistant: 인사 시스템에서 합니다.",
		b.Formatted())
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer(2)
	b.Append("q", "a")
	b.Clear()

	assert.Zero(t, b.Len())
	assert.Empty(t, b.Turns())

	b.Append("q2", "a2")
	assert.Equal(t, []core.ConversationTurn{{Query: "q2", Response: "a2"}}, b.Turns())
}

func TestBuffer_ConcurrentAppend(t *testing.T) {
	b := NewBuffer(5)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Append(fmt.Sprint(i), "")
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, b.Len())
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := NewStore(WithMaxTurns(2))

	s.Session("alice").Append("q1", "a1")
	s.Session("bob").Append("q2", "a2")

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "q1", s.Session("alice").Turns()[0].Query)
	assert.Equal(t, "q2", s.Session("bob").Turns()[0].Query)
	assert.Equal(t, 2, s.Session("carol").Cap())
}

func TestStore_SameBufferReturned(t *testing.T) {
	s := NewStore()
	assert.Same(t, s.Session("x"), s.Session("x"))
}

func TestStore_Drop(t *testing.T) {
	s := NewStore()
	s.Session("x").Append("q", "a")
	s.Drop("x")

	assert.Zero(t, s.Len())
	assert.Zero(t, s.Session("x").Len())
}

func TestStore_IdleExpiry(t *testing.T) {
	s := NewStore(WithSessionTTL(50 * time.Millisecond))
	s.Session("x").Append("q", "a")

	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, s.Session("x").Len())
}

func TestStore_NoExpiry(t *testing.T) {
	s := NewStore(WithSessionTTL(0))
	s.Session("x").Append("q", "a")

	assert.Equal(t, 1, s.Session("x").Len())
}
