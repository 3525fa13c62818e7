package processor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosight/gosight/optimizer/internal/impact"
	"github.com/gosight/gosight/optimizer/internal/insights"
	"github.com/gosight/gosight/optimizer/internal/learning"
	"github.com/gosight/gosight/optimizer/internal/session"
	"github.com/gosight/gosight/optimizer/internal/transformer"
)

// InsightRecorder stores finished analyses
type InsightRecorder interface {
	Record(ctx context.Context, a insights.InsightsAnalysis)
	Flush()
}

// Options tune the optimizer
type Options struct {
	Business      impact.BusinessConfig
	MinEvents     int
	AnomalyWindow int
	Now           func() time.Time
}

// Optimizer consumes raw events, buffers them per project, opens improvement
// cycles through the learning loop and runs periodic insight analyses
type Optimizer struct {
	window   *session.Aggregator
	loop     *learning.Loop
	recorder InsightRecorder
	opts     Options

	// serializes cycles so the gate sees the previous cycle's timestamp
	cycleMu sync.Mutex
}

// NewOptimizer creates an optimizer. recorder may be nil to disable insight runs.
func NewOptimizer(window *session.Aggregator, loop *learning.Loop, recorder InsightRecorder, opts Options) *Optimizer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MinEvents <= 0 {
		opts.MinEvents = insights.MinEvents
	}
	if opts.AnomalyWindow <= 0 {
		opts.AnomalyWindow = learning.DefaultAnomalyWindow
	}
	return &Optimizer{
		window:   window,
		loop:     loop,
		recorder: recorder,
		opts:     opts,
	}
}

// Process handles a single raw event
func (o *Optimizer) Process(ctx context.Context, raw map[string]interface{}) error {
	ev, err := transformer.TransformEvent(raw)
	if err != nil {
		return err
	}

	o.window.Add(*ev)
	o.maybeRunCycle(ctx, ev.ProjectID)
	return nil
}

func (o *Optimizer) maybeRunCycle(ctx context.Context, projectID string) {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	now := o.opts.Now()
	since := o.window.SinceCycle(projectID)
	// events a previous cycle already answered cannot raise a new anomaly
	recent := o.window.Recent(projectID, min(o.opts.AnomalyWindow, since))

	decision := o.loop.ShouldTrigger(projectID, since, recent, now)
	if !decision.Trigger {
		return
	}

	o.window.MarkCycle(projectID)
	if _, err := o.loop.RunCycle(ctx, projectID, o.window.Snapshot(projectID), decision, now); err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("Improvement cycle failed")
	}
}

// RunInsights analyzes every project that received events since the last run
func (o *Optimizer) RunInsights(ctx context.Context) int {
	if o.recorder == nil {
		return 0
	}

	analyzed := 0
	for _, projectID := range o.window.TakeChanged() {
		evs := o.window.Snapshot(projectID)
		if len(evs) < o.opts.MinEvents {
			continue
		}

		start := time.Now()
		a := insights.GenerateInsights(evs, nil, o.opts.Business, o.opts.Now())
		o.recorder.Record(ctx, a)
		analyzed++

		log.Debug().
			Str("project_id", projectID).
			Int("events", len(evs)).
			Int("insights", a.TotalInsights).
			Dur("duration", time.Since(start)).
			Msg("Insight run finished")
	}
	return analyzed
}

// Run triggers insight runs every interval until ctx is done
func (o *Optimizer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.RunInsights(ctx)
		}
	}
}

// Flush writes buffered insights
func (o *Optimizer) Flush() {
	if o.recorder != nil {
		o.recorder.Flush()
	}
}
