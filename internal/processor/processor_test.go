package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/optimizer/internal/fixes"
	"github.com/gosight/gosight/optimizer/internal/identity"
	"github.com/gosight/gosight/optimizer/internal/insights"
	"github.com/gosight/gosight/optimizer/internal/learning"
	"github.com/gosight/gosight/optimizer/internal/producer"
	"github.com/gosight/gosight/optimizer/internal/session"
	"github.com/gosight/gosight/optimizer/internal/storage"
)

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type fakeRecorder struct {
	mu       sync.Mutex
	analyses []insights.InsightsAnalysis
	flushes  int
}

func (f *fakeRecorder) Record(_ context.Context, a insights.InsightsAnalysis) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses = append(f.analyses, a)
}

func (f *fakeRecorder) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

type fakeCycleWriter struct {
	mu   sync.Mutex
	rows []storage.CycleRow
	err  error
}

func (f *fakeCycleWriter) InsertCycles(_ context.Context, rows []storage.CycleRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

type published struct {
	name      string
	projectID string
	msg       interface{}
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakePublisher) Publish(_ context.Context, name, projectID string, v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{name, projectID, v})
	return nil
}

func rawEvent(project, sessionID, typ string, offset time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"project_id": project,
		"session_id": sessionID,
		"type":       typ,
		"timestamp":  float64(t0.Add(offset).UnixMilli()),
		"page": map[string]interface{}{
			"viewport_width":  1280.0,
			"viewport_height": 800.0,
		},
		"payload": map[string]interface{}{
			"x":               100.0,
			"y":               200.0,
			"target_selector": "#buy",
		},
	}
}

func newOptimizer(t *testing.T, recorder InsightRecorder) (*Optimizer, *learning.Loop, *session.Aggregator, *fakeCycleWriter) {
	t.Helper()
	writer := &fakeCycleWriter{}
	loop := learning.NewLoop(
		identity.NewService(nil, nil, 0),
		fixes.NewMapper(fixes.DefaultRules, nil),
		learning.NewMemoryStore(),
		learning.WithSink(NewCycleSink(writer, &fakePublisher{})),
	)
	window := session.NewAggregator(100)
	clock := t0.Add(time.Minute)
	o := NewOptimizer(window, loop, recorder, Options{Now: func() time.Time { return clock }})
	return o, loop, window, writer
}

func TestOptimizer_ThresholdOpensCycle(t *testing.T) {
	ctx := context.Background()
	o, loop, window, writer := newOptimizer(t, nil)

	for i := 0; i < learning.DefaultEventThreshold-1; i++ {
		require.NoError(t, o.Process(ctx, rawEvent("shop", "s1", "click", time.Duration(i)*time.Second)))
	}
	assert.Empty(t, loop.Cycles(0))

	require.NoError(t, o.Process(ctx, rawEvent("shop", "s1", "click", 50*time.Second)))
	cycles := loop.Cycles(0)
	require.Len(t, cycles, 1)
	assert.Equal(t, "shop", cycles[0].ProjectID)
	assert.Contains(t, cycles[0].Trigger.Reason, "threshold reached")
	assert.Equal(t, 0, window.SinceCycle("shop"))
	require.Len(t, writer.rows, 1)
	assert.Equal(t, "shop", writer.rows[0].ProjectID)

	// cooldown holds the next cycle back
	for i := 0; i < learning.DefaultEventThreshold; i++ {
		require.NoError(t, o.Process(ctx, rawEvent("shop", "s2", "click", time.Minute)))
	}
	assert.Len(t, loop.Cycles(0), 1)
}

func TestOptimizer_AnomalyOpensCycle(t *testing.T) {
	ctx := context.Background()
	o, loop, _, _ := newOptimizer(t, nil)

	for i := 0; i < 4; i++ {
		require.NoError(t, o.Process(ctx, rawEvent("shop", "s1", "rage_click", time.Duration(i)*time.Second)))
	}
	assert.Empty(t, loop.Cycles(0))

	require.NoError(t, o.Process(ctx, rawEvent("shop", "s1", "EVENT_TYPE_RAGE_CLICK", 5*time.Second)))
	cycles := loop.Cycles(0)
	require.Len(t, cycles, 1)
	assert.True(t, cycles[0].Trigger.Anomaly)
	assert.Contains(t, cycles[0].Trigger.Reason, "5 rage clicks")
}

func TestOptimizer_AnomalyFiresOncePerBurst(t *testing.T) {
	ctx := context.Background()
	o, loop, _, writer := newOptimizer(t, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, o.Process(ctx, rawEvent("shop", "s1", "rage_click", time.Duration(i)*time.Second)))
	}
	require.Len(t, loop.Cycles(0), 1)

	// ordinary traffic inside the cooldown opens nothing while the burst is still in the window
	for i := 0; i < 15; i++ {
		require.NoError(t, o.Process(ctx, rawEvent("shop", "s2", "page_view", time.Duration(10+i)*time.Second)))
	}
	assert.Len(t, loop.Cycles(0), 1)
	assert.Len(t, writer.rows, 1)

	// a fresh burst still bypasses the cooldown
	for i := 0; i < 5; i++ {
		require.NoError(t, o.Process(ctx, rawEvent("shop", "s3", "rage_click", time.Duration(30+i)*time.Second)))
	}
	cycles := loop.Cycles(0)
	require.Len(t, cycles, 2)
	assert.True(t, cycles[0].Trigger.Anomaly)
}

func TestOptimizer_RejectsInvalidEvents(t *testing.T) {
	o, _, window, _ := newOptimizer(t, nil)
	err := o.Process(context.Background(), map[string]interface{}{"type": "click"})
	assert.Error(t, err)
	assert.Equal(t, 0, window.Len(""))
}

func TestOptimizer_RunInsights(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	o, _, _, _ := newOptimizer(t, rec)

	for i := 0; i < 6; i++ {
		require.NoError(t, o.Process(ctx, rawEvent("a", "s1", "click", time.Duration(i)*time.Second)))
	}
	require.NoError(t, o.Process(ctx, rawEvent("b", "s1", "click", 0)))

	assert.Equal(t, 1, o.RunInsights(ctx))
	require.Len(t, rec.analyses, 1)
	assert.Equal(t, "a", rec.analyses[0].ProjectID)
	assert.Equal(t, 6, rec.analyses[0].TotalEvents)

	// nothing new since the last run
	assert.Equal(t, 0, o.RunInsights(ctx))

	o.Flush()
	assert.Equal(t, 1, rec.flushes)
}

func TestOptimizer_RunStopsWithContext(t *testing.T) {
	rec := &fakeRecorder{}
	o, _, _, _ := newOptimizer(t, rec)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		o.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func sampleCycle(action learning.Action) learning.Cycle {
	return learning.Cycle{
		ID:        "6f1c3b1e-8d5e-4a8e-9a55-0c2b7d5f9a10",
		ProjectID: "shop",
		StartedAt: t0,
		Trigger:   learning.TriggerDecision{Trigger: true, Reason: "threshold reached: 50 events"},
		Identity:  identity.Identity{State: identity.StateFrustrated, Confidence: 0.8, Source: identity.SourceRules},
		Mapping: fixes.IdentityFixMapping{
			State:   identity.StateFrustrated,
			Changes: []fixes.ElementChange{{Selector: "#buy"}, {Selector: ".grid"}},
			Summary: "simplify layout",
		},
		Action: action,
	}
}

func TestCycleSink_NewCycle(t *testing.T) {
	w := &fakeCycleWriter{}
	pub := &fakePublisher{}
	s := NewCycleSink(w, pub)

	require.NoError(t, s.SaveCycle(context.Background(), sampleCycle(learning.ActionPRApproval)))

	require.Len(t, w.rows, 1)
	row := w.rows[0]
	assert.Equal(t, "frustrated", row.IdentityState)
	assert.Equal(t, "rules", row.IdentitySource)
	assert.Equal(t, uint16(2), row.ChangesCount)
	assert.Equal(t, "threshold reached: 50 events", row.Trigger)
	assert.Nil(t, row.Approved)
	assert.Equal(t, uint64(t0.UnixMilli()), row.Version)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, producer.TopicFixes, pub.sent[0].name)
	assert.Equal(t, "shop", pub.sent[0].projectID)
	msg, ok := pub.sent[0].msg.(FixMessage)
	require.True(t, ok)
	assert.Equal(t, learning.ActionPRApproval, msg.Action)
	assert.Len(t, msg.Mapping.Changes, 2)
}

func TestCycleSink_SkippedAndOutcomeNotPublished(t *testing.T) {
	w := &fakeCycleWriter{}
	pub := &fakePublisher{}
	s := NewCycleSink(w, pub)
	ctx := context.Background()

	require.NoError(t, s.SaveCycle(ctx, sampleCycle(learning.ActionSkipped)))

	c := sampleCycle(learning.ActionPRApproval)
	c.Outcome = &learning.Outcome{Approved: true, Impact: 12.5, RecordedAt: t0.Add(time.Hour)}
	require.NoError(t, s.SaveCycle(ctx, c))

	assert.Empty(t, pub.sent)
	require.Len(t, w.rows, 2)
	row := w.rows[1]
	require.NotNil(t, row.Approved)
	assert.Equal(t, uint8(1), *row.Approved)
	assert.Equal(t, 12.5, *row.Impact)
	assert.Greater(t, row.Version, w.rows[0].Version)
}

func TestCycleSink_Errors(t *testing.T) {
	ctx := context.Background()

	bad := sampleCycle(learning.ActionPRApproval)
	bad.ID = "not-a-uuid"
	assert.Error(t, NewCycleSink(&fakeCycleWriter{}, nil).SaveCycle(ctx, bad))

	failing := &fakeCycleWriter{err: errors.New("clickhouse down")}
	assert.Error(t, NewCycleSink(failing, nil).SaveCycle(ctx, sampleCycle(learning.ActionPRApproval)))

	// no dependencies at all is a no-op
	assert.NoError(t, NewCycleSink(nil, nil).SaveCycle(ctx, sampleCycle(learning.ActionPRApproval)))
}
