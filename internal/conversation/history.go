// Package conversation keeps a bounded history of question/answer turns
// so follow-up questions can be answered with prior context.
package conversation

import "sync"

// DefaultMaxTurns bounds history growth for long-lived sessions.
const DefaultMaxTurns = 20

// Turn is one question and the answer it received.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// History is a fixed-capacity record of recent turns. Oldest turns are
// evicted once the capacity is reached. Safe for concurrent use.
type History struct {
	mu    sync.Mutex
	max   int
	turns []Turn
}

// NewHistory returns a history holding at most max turns. Values less
// than 1 fall back to DefaultMaxTurns.
func NewHistory(max int) *History {
	if max < 1 {
		max = DefaultMaxTurns
	}
	return &History{max: max}
}

// Append records a completed turn, evicting the oldest if full.
func (h *History) Append(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{Question: question, Answer: answer})
	if len(h.turns) > h.max {
		h.turns = h.turns[len(h.turns)-h.max:]
	}
}

// Record replaces the history with the given turns, keeping only the
// most recent if they exceed capacity. Used by stateless callers that
// carry their own transcript.
func (h *History) Record(turns []Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(turns) > h.max {
		turns = turns[len(turns)-h.max:]
	}
	h.turns = append(h.turns[:0:0], turns...)
}

// Turns returns the recorded turns, oldest first.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Turn(nil), h.turns...)
}

// Len reports the number of recorded turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Clear discards all recorded turns.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
