package insights

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/optimizer/internal/producer"
	"github.com/gosight/gosight/optimizer/internal/storage"
)

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]storage.InsightRow
}

func (f *fakeWriter) InsertInsights(_ context.Context, rows []storage.InsightRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, rows)
	return nil
}

func (f *fakeWriter) rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakePublisher) Publish(_ context.Context, name, projectID string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, name+"/"+projectID)
	return nil
}

func TestProcessor_Record(t *testing.T) {
	w := &fakeWriter{}
	pub := &fakePublisher{}
	p := NewProcessor(w, pub, 100, time.Hour)

	a := GenerateInsights(window(), nil, shop, now)
	require.Equal(t, 1, a.TotalInsights)

	p.Record(context.Background(), a)
	assert.Equal(t, 0, w.rows())
	assert.Equal(t, []string{producer.TopicAlerts + "/proj-1"}, pub.messages)

	p.Stop()
	require.Equal(t, 1, w.rows())
	row := w.batches[0][0]
	assert.Equal(t, a.Insights[0].ID, row.InsightID.String())
	assert.Equal(t, "rage_cluster", row.InsightType)
	assert.Equal(t, uint32(6), row.Occurrences)
	assert.Equal(t, "above_fold", row.Zone)
	assert.Contains(t, row.Details, `"pattern_id"`)

	// stopping twice is harmless
	p.Stop()
}

func TestProcessor_FlushOnBatchSize(t *testing.T) {
	w := &fakeWriter{}
	p := NewProcessor(w, nil, 1, time.Hour)
	defer p.Stop()

	p.Record(context.Background(), GenerateInsights(window(), nil, shop, now))
	assert.Equal(t, 1, w.rows())
}

func TestProcessor_SkipsInsufficient(t *testing.T) {
	w := &fakeWriter{}
	pub := &fakePublisher{}
	p := NewProcessor(w, pub, 1, time.Hour)
	defer p.Stop()

	p.Record(context.Background(), GenerateInsights(nil, nil, shop, now))
	assert.Equal(t, 0, w.rows())
	assert.Empty(t, pub.messages)
}
