package learning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosight/gosight/optimizer/internal/events"
	"github.com/gosight/gosight/optimizer/internal/fixes"
	"github.com/gosight/gosight/optimizer/internal/identity"
)

var (
	ErrCycleNotFound   = errors.New("improvement cycle not found")
	ErrOutcomeRecorded = errors.New("outcome already recorded for cycle")
)

// Outcome is the human decision on a cycle and the measured impact
type Outcome struct {
	Approved   bool      `json:"approved"`
	Impact     float64   `json:"impact"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Cycle is the audit record of one detect, classify, decide run
type Cycle struct {
	ID        string                   `json:"id"`
	ProjectID string                   `json:"project_id"`
	StartedAt time.Time                `json:"started_at"`
	Trigger   TriggerDecision          `json:"trigger"`
	Identity  identity.Identity        `json:"identity"`
	Mapping   fixes.IdentityFixMapping `json:"mapping"`
	Action    Action                   `json:"action"`
	Reason    string                   `json:"reason"`
	Outcome   *Outcome                 `json:"outcome,omitempty"`
}

// Classifier produces the identity for a window of events
type Classifier interface {
	Classify(ctx context.Context, evs []events.Event, now time.Time) identity.Identity
}

// FixMapper turns an identity into element changes
type FixMapper interface {
	Map(ctx context.Context, id identity.Identity) fixes.IdentityFixMapping
}

// CycleSink receives every new or updated cycle
type CycleSink interface {
	SaveCycle(ctx context.Context, c Cycle) error
}

// Loop wires the classifier, mapper and learning store together
type Loop struct {
	classifier Classifier
	mapper     FixMapper
	store      Store
	history    *History
	gate       Gate
	autoApply  AutoApply
	sink       CycleSink

	mu        sync.Mutex
	lastCycle map[string]time.Time
}

// Option customizes a Loop
type Option func(*Loop)

func WithGate(g Gate) Option           { return func(l *Loop) { l.gate = g } }
func WithAutoApply(a AutoApply) Option { return func(l *Loop) { l.autoApply = a } }
func WithHistory(h *History) Option    { return func(l *Loop) { l.history = h } }
func WithSink(s CycleSink) Option      { return func(l *Loop) { l.sink = s } }

func NewLoop(c Classifier, m FixMapper, store Store, opts ...Option) *Loop {
	l := &Loop{
		classifier: c,
		mapper:     m,
		store:      store,
		history:    NewHistory(DefaultHistorySize),
		gate:       DefaultGate(),
		autoApply:  DefaultAutoApply(),
		lastCycle:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ShouldTrigger evaluates the gate for a project
func (l *Loop) ShouldTrigger(projectID string, eventsSince int, recent []events.Event, now time.Time) TriggerDecision {
	l.mu.Lock()
	last := l.lastCycle[projectID]
	l.mu.Unlock()
	return l.gate.Evaluate(last, eventsSince, recent, now)
}

// RunCycle classifies evs, maps the identity to fixes and decides what to do
// with them. The cycle is appended to history and handed to the sink.
func (l *Loop) RunCycle(ctx context.Context, projectID string, evs []events.Event, trigger TriggerDecision, now time.Time) (Cycle, error) {
	l.mu.Lock()
	l.lastCycle[projectID] = now
	l.mu.Unlock()

	id := l.classifier.Classify(ctx, evs, now)
	mapping := l.mapper.Map(ctx, id)

	rec, ok, err := l.store.Get(ctx, id.State)
	if err != nil {
		return Cycle{}, fmt.Errorf("load learning record: %w", err)
	}
	action, reason := l.autoApply.Decide(mapping, rec, ok, id)

	c := Cycle{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		StartedAt: now,
		Trigger:   trigger,
		Identity:  id,
		Mapping:   mapping,
		Action:    action,
		Reason:    reason,
	}
	l.history.Append(c)
	l.save(ctx, c)

	log.Info().
		Str("cycle_id", c.ID).
		Str("project_id", projectID).
		Str("state", string(id.State)).
		Str("source", string(id.Source)).
		Float64("confidence", id.Confidence).
		Str("action", string(action)).
		Int("changes", len(mapping.Changes)).
		Str("trigger", trigger.Reason).
		Msg("Improvement cycle completed")

	return c, nil
}

// RecordOutcome applies a human decision to the cycle's identity state. Each
// cycle accepts exactly one outcome.
func (l *Loop) RecordOutcome(ctx context.Context, cycleID string, approved bool, impact float64, now time.Time) (Cycle, Record, error) {
	o := Outcome{Approved: approved, Impact: impact, RecordedAt: now}
	c, err := l.history.setOutcome(cycleID, o)
	if err != nil {
		return c, Record{}, err
	}

	rec, err := l.store.Update(ctx, c.Identity.State, func(r Record) Record {
		return r.ApplyOutcome(approved, impact, now)
	})
	if err != nil {
		l.history.clearOutcome(cycleID)
		return Cycle{}, Record{}, fmt.Errorf("update learning record: %w", err)
	}
	l.save(ctx, c)

	log.Info().
		Str("cycle_id", cycleID).
		Str("state", string(rec.State)).
		Bool("approved", approved).
		Float64("impact", impact).
		Float64("confidence", rec.Confidence).
		Msg("Outcome recorded")

	return c, rec, nil
}

// Cycle returns one cycle from history
func (l *Loop) Cycle(id string) (Cycle, error) {
	c, ok := l.history.Get(id)
	if !ok {
		return Cycle{}, ErrCycleNotFound
	}
	return c, nil
}

// Cycles returns recent cycles, newest first
func (l *Loop) Cycles(limit int) []Cycle {
	return l.history.Recent(limit)
}

// Records returns every learning record
func (l *Loop) Records(ctx context.Context) ([]Record, error) {
	return l.store.All(ctx)
}

func (l *Loop) save(ctx context.Context, c Cycle) {
	if l.sink == nil {
		return
	}
	if err := l.sink.SaveCycle(ctx, c); err != nil {
		log.Error().Err(err).Str("cycle_id", c.ID).Msg("Failed to save improvement cycle")
	}
}
