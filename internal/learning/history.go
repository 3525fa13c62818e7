package learning

import (
	"container/ring"
	"sync"
)

// DefaultHistorySize is how many cycles are kept for audit
const DefaultHistorySize = 100

// History is a fixed-size ring of recent cycles; the oldest is overwritten
type History struct {
	mu    sync.RWMutex
	next  *ring.Ring
	count int
	size  int
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		next: ring.New(size),
		size: size,
	}
}

// Append stores c, evicting the oldest cycle when full
func (h *History) Append(c Cycle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next.Value = &c
	h.next = h.next.Next()
	if h.count < h.size {
		h.count++
	}
}

// Len returns the number of retained cycles
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Get returns a copy of the cycle with the given id
func (h *History) Get(id string) (Cycle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c := h.find(id); c != nil {
		return *c, true
	}
	return Cycle{}, false
}

// Recent returns up to limit cycles, newest first. limit <= 0 returns all.
func (h *History) Recent(limit int) []Cycle {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > h.count {
		limit = h.count
	}
	out := make([]Cycle, 0, limit)
	r := h.next.Prev()
	for i := 0; i < limit; i++ {
		out = append(out, *r.Value.(*Cycle))
		r = r.Prev()
	}
	return out
}

// setOutcome attaches o to the cycle unless it already has one
func (h *History) setOutcome(id string, o Outcome) (Cycle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := h.find(id)
	if c == nil {
		return Cycle{}, ErrCycleNotFound
	}
	if c.Outcome != nil {
		return *c, ErrOutcomeRecorded
	}
	c.Outcome = &o
	return *c, nil
}

// clearOutcome undoes setOutcome after a failed store update
func (h *History) clearOutcome(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c := h.find(id); c != nil {
		c.Outcome = nil
	}
}

func (h *History) find(id string) *Cycle {
	var found *Cycle
	h.next.Do(func(v interface{}) {
		if v == nil || found != nil {
			return
		}
		if c := v.(*Cycle); c.ID == id {
			found = c
		}
	})
	return found
}
