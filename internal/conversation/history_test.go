package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendAndTurns(t *testing.T) {
	h := NewHistory(5)

	h.Append("What is the loan rate?", "The rate is 5.99% APR.")
	h.Append("And the term?", "Terms run 12 to 60 months.")

	turns := h.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "What is the loan rate?", turns[0].Question)
	assert.Equal(t, "And the term?", turns[1].Question)
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)

	for i := 1; i <= 5; i++ {
		h.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := h.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "q3", turns[0].Question)
	assert.Equal(t, "q5", turns[2].Question)
}

func TestHistoryRecord(t *testing.T) {
	h := NewHistory(2)

	h.Append("old", "old answer")
	h.Record([]Turn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
	})

	turns := h.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "q2", turns[0].Question)
	assert.Equal(t, "q3", turns[1].Question)
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(5)
	h.Append("q", "a")
	h.Clear()

	assert.Zero(t, h.Len())
	assert.Empty(t, h.Turns())

	// Usable after clearing.
	h.Append("q2", "a2")
	assert.Equal(t, 1, h.Len())
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < DefaultMaxTurns+5; i++ {
		h.Append(fmt.Sprintf("q%d", i), "a")
	}
	assert.Equal(t, DefaultMaxTurns, h.Len())
}

func TestHistoryTurnsIsACopy(t *testing.T) {
	h := NewHistory(5)
	h.Append("q", "a")

	turns := h.Turns()
	turns[0].Answer = "mutated"

	assert.Equal(t, "a", h.Turns()[0].Answer)
}

func TestHistoryConcurrentAppend(t *testing.T) {
	h := NewHistory(10)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Append(fmt.Sprintf("q%d", i), "a")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, h.Len())
}
