package learning

import (
	"fmt"
	"time"

	"github.com/gosight/gosight/optimizer/internal/events"
)

// Gate defaults
const (
	DefaultCooldown       = 5 * time.Minute
	DefaultEventThreshold = 50
	DefaultAnomalyWindow  = 20
)

// anomalyThresholds short-circuit the cooldown when reached within the window
var anomalyThresholds = []struct {
	Type  events.Type
	Count int
	Label string
}{
	{events.TypeRageClick, 5, "rage clicks"},
	{events.TypeBounce, 3, "bounces"},
	{events.TypeFormError, 4, "form errors"},
}

// Gate decides when a new improvement cycle may start
type Gate struct {
	Cooldown       time.Duration
	EventThreshold int
	AnomalyWindow  int
}

// DefaultGate returns the gate with default thresholds
func DefaultGate() Gate {
	return Gate{
		Cooldown:       DefaultCooldown,
		EventThreshold: DefaultEventThreshold,
		AnomalyWindow:  DefaultAnomalyWindow,
	}
}

// TriggerDecision says whether to run a cycle and why
type TriggerDecision struct {
	Trigger bool   `json:"trigger"`
	Anomaly bool   `json:"anomaly"`
	Reason  string `json:"reason"`
}

// Evaluate checks the gate. lastCycle is zero when no cycle has run yet,
// eventsSince counts events since the last cycle and recent holds the
// newest events, oldest first.
func (g Gate) Evaluate(lastCycle time.Time, eventsSince int, recent []events.Event, now time.Time) TriggerDecision {
	if reason, ok := g.anomaly(recent); ok {
		return TriggerDecision{Trigger: true, Anomaly: true, Reason: reason}
	}

	if !lastCycle.IsZero() {
		if elapsed := now.Sub(lastCycle); elapsed < g.Cooldown {
			return TriggerDecision{Reason: fmt.Sprintf("cooldown: %s remaining", (g.Cooldown - elapsed).Round(time.Second))}
		}
	}

	if eventsSince < g.EventThreshold {
		return TriggerDecision{Reason: fmt.Sprintf("waiting for events: %d/%d", eventsSince, g.EventThreshold)}
	}

	return TriggerDecision{Trigger: true, Reason: fmt.Sprintf("threshold reached: %d events", eventsSince)}
}

func (g Gate) anomaly(recent []events.Event) (string, bool) {
	window := recent
	if g.AnomalyWindow > 0 && len(window) > g.AnomalyWindow {
		window = window[len(window)-g.AnomalyWindow:]
	}

	counts := make(map[events.Type]int)
	for _, e := range window {
		counts[e.Type]++
	}
	for _, t := range anomalyThresholds {
		if n := counts[t.Type]; n >= t.Count {
			return fmt.Sprintf("anomaly: %d %s in last %d events", n, t.Label, len(window)), true
		}
	}
	return "", false
}
