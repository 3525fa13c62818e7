package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/optimizer/internal/events"
)

func ev(project string, i int) events.Event {
	return events.Event{ID: fmt.Sprintf("%s-%d", project, i), ProjectID: project, SessionID: "s", Type: events.TypeClick}
}

func TestAggregator_BoundedWindow(t *testing.T) {
	a := NewAggregator(3)
	for i := 0; i < 5; i++ {
		a.Add(ev("p", i))
	}

	snap := a.Snapshot("p")
	require.Len(t, snap, 3)
	assert.Equal(t, "p-2", snap[0].ID)
	assert.Equal(t, "p-4", snap[2].ID)
	assert.Equal(t, 3, a.Len("p"))
	assert.Equal(t, 5, a.SinceCycle("p"))

	// snapshots are copies
	snap[0].ID = "mutated"
	assert.Equal(t, "p-2", a.Snapshot("p")[0].ID)
}

func TestAggregator_Recent(t *testing.T) {
	a := NewAggregator(0)
	for i := 0; i < 4; i++ {
		a.Add(ev("p", i))
	}
	recent := a.Recent("p", 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "p-2", recent[0].ID)
	assert.Len(t, a.Recent("p", 10), 4)
	assert.Nil(t, a.Recent("missing", 2))
	assert.Nil(t, a.Recent("p", 0))
}

func TestAggregator_CountersPerProject(t *testing.T) {
	a := NewAggregator(10)
	a.Add(ev("a", 1))
	a.Add(ev("a", 2))
	a.Add(ev("b", 1))

	a.MarkCycle("a")
	assert.Equal(t, 0, a.SinceCycle("a"))
	assert.Equal(t, 1, a.SinceCycle("b"))
	assert.Equal(t, 0, a.SinceCycle("c"))

	assert.Equal(t, []string{"a", "b"}, a.TakeChanged())
	assert.Empty(t, a.TakeChanged())

	a.Add(ev("b", 2))
	assert.Equal(t, []string{"b"}, a.TakeChanged())
}
