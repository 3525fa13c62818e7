package session

import (
	"sort"
	"sync"

	"github.com/gosight/gosight/optimizer/internal/events"
)

// DefaultWindowSize bounds the events kept per project
const DefaultWindowSize = 5000

// Aggregator keeps a bounded window of recent events per project and counts
// events since the project's last improvement cycle
type Aggregator struct {
	mu       sync.Mutex
	size     int
	projects map[string]*window
}

type window struct {
	events      []events.Event
	sinceCycle  int
	sinceReport int
}

// NewAggregator keeps at most size events per project
func NewAggregator(size int) *Aggregator {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Aggregator{
		size:     size,
		projects: make(map[string]*window),
	}
}

// Add appends an event to its project's window, dropping the oldest when full
func (a *Aggregator) Add(e events.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.projects[e.ProjectID]
	if !ok {
		w = &window{events: make([]events.Event, 0, 64)}
		a.projects[e.ProjectID] = w
	}

	if len(w.events) >= a.size {
		drop := len(w.events) - a.size + 1
		w.events = append(w.events[:0], w.events[drop:]...)
	}
	w.events = append(w.events, e)
	w.sinceCycle++
	w.sinceReport++
}

// Snapshot returns a copy of a project's window, oldest first
func (a *Aggregator) Snapshot(projectID string) []events.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.projects[projectID]
	if !ok {
		return nil
	}
	out := make([]events.Event, len(w.events))
	copy(out, w.events)
	return out
}

// Recent returns a copy of the newest n events, oldest first
func (a *Aggregator) Recent(projectID string, n int) []events.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, ok := a.projects[projectID]
	if !ok || n <= 0 {
		return nil
	}
	if n > len(w.events) {
		n = len(w.events)
	}
	out := make([]events.Event, n)
	copy(out, w.events[len(w.events)-n:])
	return out
}

// SinceCycle returns how many events arrived since MarkCycle
func (a *Aggregator) SinceCycle(projectID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w, ok := a.projects[projectID]; ok {
		return w.sinceCycle
	}
	return 0
}

// MarkCycle resets the since-cycle counter
func (a *Aggregator) MarkCycle(projectID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w, ok := a.projects[projectID]; ok {
		w.sinceCycle = 0
	}
}

// TakeChanged returns projects that received events since the last call,
// sorted, and resets their change counters
func (a *Aggregator) TakeChanged() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ids []string
	for id, w := range a.projects {
		if w.sinceReport > 0 {
			ids = append(ids, id)
			w.sinceReport = 0
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of buffered events for a project
func (a *Aggregator) Len(projectID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w, ok := a.projects[projectID]; ok {
		return len(w.events)
	}
	return 0
}
