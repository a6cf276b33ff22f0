package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_NewestFirst(t *testing.T) {
	h := NewHistory(8)

	h.Add(&RunResult{RunID: "a"})
	h.Add(&RunResult{RunID: "b"})
	h.Add(&RunResult{RunID: "c"})

	results := h.List()
	require.Len(t, results, 3)
	assert.Equal(t, "c", results[0].RunID)
	assert.Equal(t, "a", results[2].RunID)
}

func TestHistory_Eviction(t *testing.T) {
	h := NewHistory(2)

	for i := 0; i < 5; i++ {
		h.Add(&RunResult{RunID: fmt.Sprintf("run-%d", i)})
	}

	results := h.List()
	require.Len(t, results, 2)
	assert.Equal(t, "run-4", results[0].RunID)
	assert.Equal(t, "run-3", results[1].RunID)
}
