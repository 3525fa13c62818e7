package learning

import (
	"context"
	"sort"
	"sync"

	"github.com/gosight/gosight/optimizer/internal/identity"
)

// Store holds one Record per identity state. Update must apply fn atomically
// with respect to other updates of the same state.
type Store interface {
	Get(ctx context.Context, s identity.State) (Record, bool, error)
	Update(ctx context.Context, s identity.State, fn func(Record) Record) (Record, error)
	All(ctx context.Context) ([]Record, error)
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu      sync.Mutex
	records map[identity.State]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[identity.State]Record)}
}

func (m *MemoryStore) Get(_ context.Context, s identity.State) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[s]
	return r, ok, nil
}

func (m *MemoryStore) Update(_ context.Context, s identity.State, fn func(Record) Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[s]
	if !ok {
		r = NewRecord(s)
	}
	r = fn(r)
	m.records[s] = r
	return r, nil
}

func (m *MemoryStore) All(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].State < rs[j].State })
}
