package learning

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3)
	assert.Empty(t, h.Recent(0))

	for i := 1; i <= 5; i++ {
		h.Append(Cycle{ID: fmt.Sprintf("c%d", i)})
	}
	assert.Equal(t, 3, h.Len())

	ids := func(cs []Cycle) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.ID
		}
		return out
	}
	assert.Equal(t, []string{"c5", "c4", "c3"}, ids(h.Recent(0)))
	assert.Equal(t, []string{"c5", "c4"}, ids(h.Recent(2)))
	assert.Equal(t, []string{"c5", "c4", "c3"}, ids(h.Recent(10)))

	_, ok := h.Get("c2")
	assert.False(t, ok)
	c, ok := h.Get("c3")
	require.True(t, ok)
	assert.Equal(t, "c3", c.ID)
}

func TestHistory_OutcomeOnce(t *testing.T) {
	h := NewHistory(0)
	h.Append(Cycle{ID: "a"})

	c, err := h.setOutcome("a", Outcome{Approved: true, Impact: 10})
	require.NoError(t, err)
	require.NotNil(t, c.Outcome)

	_, err = h.setOutcome("a", Outcome{Approved: false})
	assert.ErrorIs(t, err, ErrOutcomeRecorded)

	_, err = h.setOutcome("missing", Outcome{})
	assert.ErrorIs(t, err, ErrCycleNotFound)

	h.clearOutcome("a")
	got, _ := h.Get("a")
	assert.Nil(t, got.Outcome)
}

func TestHistory_ReturnsCopies(t *testing.T) {
	h := NewHistory(2)
	h.Append(Cycle{ID: "a", Reason: "original"})

	c, _ := h.Get("a")
	c.Reason = "changed"
	got, _ := h.Get("a")
	assert.Equal(t, "original", got.Reason)
}
