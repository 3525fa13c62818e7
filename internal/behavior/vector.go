// Package behavior turns an event window into a behavioral vector.
package behavior

import (
	"math"
	"time"

	"github.com/gosight/gosight/optimizer/internal/events"
)

// DecayWindowMs is the time constant of the recency weight exp(-age/W)
const DecayWindowMs = 300_000

// Vector is the five-dimension behavioral signature, each in [0,1]
type Vector struct {
	Exploration float64 `json:"exploration"`
	Hesitation  float64 `json:"hesitation"`
	Engagement  float64 `json:"engagement"`
	Velocity    float64 `json:"velocity"`
	Focus       float64 `json:"focus"`
}

// Neutral is returned for an empty window
var Neutral = Vector{0.5, 0.5, 0.5, 0.5, 0.5}

// Dimensions returns the vector in canonical order
func (v Vector) Dimensions() [5]float64 {
	return [5]float64{v.Exploration, v.Hesitation, v.Engagement, v.Velocity, v.Focus}
}

var hesitationTypes = map[events.Type]bool{
	events.TypeScrollReversal:  true,
	events.TypeDeadClick:       true,
	events.TypeFormBlur:        true,
	events.TypeCheckoutAbandon: true,
	events.TypeExitIntent:      true,
}

var engagementWeights = map[events.Type]float64{
	events.TypeHoverIntent:   2,
	events.TypeTextSelection: 1.5,
	events.TypeProductView:   1,
	events.TypeSectionView:   0.5,
}

// funnel is the ordered purchase funnel used for velocity
var funnel = []events.Type{
	events.TypePageView,
	events.TypeSectionView,
	events.TypeProductView,
	events.TypeAddToCart,
	events.TypeCheckoutStart,
	events.TypePurchase,
}

var funnelIndex = func() map[events.Type]int {
	m := make(map[events.Type]int, len(funnel))
	for i, t := range funnel {
		m[t] = i
	}
	return m
}()

// Weight returns the recency weight of an event relative to now.
// Events stamped in the future count as fresh.
func Weight(ev events.Event, now time.Time) float64 {
	age := float64(now.UnixMilli() - ev.Timestamp)
	if age < 0 {
		age = 0
	}
	return math.Exp(-age / DecayWindowMs)
}

// Extract computes the behavioral vector of evs as seen at now. It does not
// modify evs.
func Extract(evs []events.Event, now time.Time) Vector {
	if len(evs) == 0 {
		return Neutral
	}

	weights := make([]float64, len(evs))
	var total float64
	for i, ev := range evs {
		weights[i] = Weight(ev, now)
		total += weights[i]
	}
	// Every event decayed to nothing, nothing to say about this window
	if total == 0 {
		return Neutral
	}

	return Vector{
		Exploration: exploration(evs),
		Hesitation:  hesitation(evs, weights, total),
		Engagement:  engagement(evs, weights, total),
		Velocity:    velocity(evs, weights, total),
		Focus:       focus(evs, weights),
	}
}

func exploration(evs []events.Event) float64 {
	sections := make(map[string]struct{})
	elements := make(map[string]struct{})
	for _, ev := range evs {
		if ev.SectionID != "" {
			sections[ev.SectionID] = struct{}{}
		}
		if ev.ElementSelector != "" {
			elements[ev.ElementSelector] = struct{}{}
		}
	}
	s := math.Min(float64(len(sections))/5, 1)
	e := math.Min(float64(len(elements))/10, 1)
	return (s + e) / 2
}

func hesitation(evs []events.Event, weights []float64, total float64) float64 {
	var mass float64
	for i, ev := range evs {
		if hesitationTypes[ev.Type] {
			mass += weights[i]
		}
	}
	return math.Min(mass/total*3, 1)
}

func engagement(evs []events.Event, weights []float64, total float64) float64 {
	var mass float64
	for i, ev := range evs {
		mass += engagementWeights[ev.Type] * weights[i]
	}
	return math.Min(mass/total, 1)
}

func velocity(evs []events.Event, weights []float64, total float64) float64 {
	stages := float64(len(funnel))
	var progression float64
	maxStage := 0
	for i, ev := range evs {
		idx, ok := funnelIndex[ev.Type]
		if !ok {
			continue
		}
		progression += weights[i] * float64(idx+1)
		if idx+1 > maxStage {
			maxStage = idx + 1
		}
	}
	progressionScore := progression / (total * stages)
	stageScore := float64(maxStage) / stages
	return clamp01((progressionScore + stageScore) / 2)
}

func focus(evs []events.Event, weights []float64) float64 {
	buckets := make(map[string]float64)
	var total float64
	for i, ev := range evs {
		key := ev.SectionID
		if key == "" {
			key = ev.ElementSelector
		}
		if key == "" {
			continue
		}
		buckets[key] += weights[i]
		total += weights[i]
	}
	if total == 0 {
		return 0
	}
	var largest float64
	for _, m := range buckets {
		if m > largest {
			largest = m
		}
	}
	return largest / total
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
