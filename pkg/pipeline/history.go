package pipeline

import "sync"

// defaultHistorySize is how many recent run results are retained for
// the trigger API.
const defaultHistorySize = 64

// History is a bounded, concurrency-safe log of recent run results.
// Runs are archived here once they reach a terminal state.
type History struct {
	mu      sync.Mutex
	max     int
	results []*RunResult
}

// NewHistory creates a history retaining up to max results.
func NewHistory(max int) *History {
	if max <= 0 {
		max = defaultHistorySize
	}

	return &History{max: max}
}

// Add records a completed run, evicting the oldest entry when full.
func (h *History) Add(result *RunResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, result)
	if len(h.results) > h.max {
		h.results = h.results[len(h.results)-h.max:]
	}
}

// List returns the retained results, newest first.
func (h *History) List() []*RunResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*RunResult, 0, len(h.results))
	for i := len(h.results) - 1; i >= 0; i-- {
		out = append(out, h.results[i])
	}

	return out
}
