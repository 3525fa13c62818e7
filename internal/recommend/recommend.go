// Package recommend turns a pattern into a concrete change to try.
package recommend

import (
	"fmt"
	"strings"

	"github.com/gosight/gosight/optimizer/internal/events"
	"github.com/gosight/gosight/optimizer/internal/impact"
	"github.com/gosight/gosight/optimizer/internal/patterns"
)

// Effort is the rough cost of implementing a recommendation
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Priority is derived from the urgency of the underlying impact
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Template is the static advice for one pattern type. Actions[0] is the
// default choice.
type Template struct {
	Actions         []string
	TargetMetric    string
	BaseImprovement float64
	Effort          Effort
}

// Relocation suggests moving the target to a more visible position
type Relocation struct {
	From   events.Point `json:"from"`
	To     events.Point `json:"to"`
	Reason string       `json:"reason"`
}

// Recommendation is the human-readable fix for a pattern
type Recommendation struct {
	Action               string      `json:"action"`
	Alternatives         []string    `json:"alternatives"`
	Rationale            string      `json:"rationale"`
	TargetMetric         string      `json:"target_metric"`
	EstimatedImprovement float64     `json:"estimated_improvement"`
	Effort               Effort      `json:"effort"`
	Priority             Priority    `json:"priority"`
	Relocation           *Relocation `json:"relocation,omitempty"`
}

const actionWholeRowClickable = "Make the entire row clickable"

// Templates holds the advice for every pattern type
var Templates = map[patterns.Type]Template{
	patterns.TypeRageCluster: {
		Actions: []string{
			"Give the element immediate visual feedback on click",
			"Show a loading state while the action completes",
			"Enlarge the clickable area around the element",
		},
		TargetMetric:    "click_success_rate",
		BaseImprovement: 15,
		Effort:          EffortLow,
	},
	patterns.TypeDeadClickHotspot: {
		Actions: []string{
			"Make the element interactive or remove its clickable styling",
			actionWholeRowClickable,
			"Link the element to its detail page",
		},
		TargetMetric:    "click_through_rate",
		BaseImprovement: 12,
		Effort:          EffortLow,
	},
	patterns.TypeScrollAbandonment: {
		Actions: []string{
			"Move key content and calls to action above the fold",
			"Add a visual cue that more content follows",
			"Shorten the hero section",
		},
		TargetMetric:    "scroll_depth",
		BaseImprovement: 20,
		Effort:          EffortMedium,
	},
	patterns.TypeElementConfusion: {
		Actions: []string{
			"Style the element so it clearly reads as a button or as plain content",
			"Add a hover state that signals interactivity",
		},
		TargetMetric:    "interaction_success_rate",
		BaseImprovement: 10,
		Effort:          EffortLow,
	},
	patterns.TypePriceAnxiety: {
		Actions: []string{
			"Show the full price including shipping and taxes early",
			"Add a price match or money back guarantee near the price",
			"Display payment plan options next to the price",
		},
		TargetMetric:    "checkout_conversion_rate",
		BaseImprovement: 8,
		Effort:          EffortMedium,
	},
	patterns.TypeCTAInvisibility: {
		Actions: []string{
			"Move the call to action above the fold",
			"Increase the contrast and size of the call to action",
			"Add a sticky call to action bar",
		},
		TargetMetric:    "cta_click_rate",
		BaseImprovement: 25,
		Effort:          EffortMedium,
	},
}

var fallbackTemplate = Template{
	Actions:         []string{"Review the affected element with session replays"},
	TargetMetric:    "conversion_rate",
	BaseImprovement: 5,
	Effort:          EffortMedium,
}

var currencySymbols = []string{"$", "€", "£", "¥", "₹"}

// ImprovementMultiplier scales the template estimate by coverage
func ImprovementMultiplier(sessionsPercent float64) float64 {
	switch {
	case sessionsPercent >= 50:
		return 1.2
	case sessionsPercent < 10:
		return 0.8
	default:
		return 1.0
	}
}

// PriorityFor buckets an urgency score
func PriorityFor(urgency int) Priority {
	switch {
	case urgency >= 80:
		return PriorityUrgent
	case urgency >= 60:
		return PriorityHigh
	case urgency >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Generate builds the recommendation for p
func Generate(p patterns.Pattern, imp impact.BusinessImpact) Recommendation {
	tpl, ok := Templates[p.Type]
	if !ok {
		tpl = fallbackTemplate
	}

	action := chooseAction(p, tpl)
	var alts []string
	for _, a := range tpl.Actions {
		if a != action {
			alts = append(alts, a)
		}
	}

	rec := Recommendation{
		Action:               action,
		Alternatives:         alts,
		Rationale:            rationale(p, imp),
		TargetMetric:         tpl.TargetMetric,
		EstimatedImprovement: tpl.BaseImprovement * ImprovementMultiplier(p.SessionsAffectedPercent),
		Effort:               tpl.Effort,
		Priority:             PriorityFor(imp.UrgencyScore),
		Relocation:           relocation(p),
	}
	return rec
}

func chooseAction(p patterns.Pattern, tpl Template) string {
	if p.Type == patterns.TypeDeadClickHotspot && looksLikeProductRow(p.ElementTexts) {
		return actionWholeRowClickable
	}
	return tpl.Actions[0]
}

func looksLikeProductRow(texts []string) bool {
	for _, t := range texts {
		if strings.Contains(strings.ToLower(t), "product") {
			return true
		}
		for _, sym := range currencySymbols {
			if strings.Contains(t, sym) {
				return true
			}
		}
	}
	return false
}

func relocation(p patterns.Pattern) *Relocation {
	if p.Type != patterns.TypeCTAInvisibility && p.Type != patterns.TypeDeadClickHotspot {
		return nil
	}
	if !p.Location.BelowFold() {
		return nil
	}
	return &Relocation{
		From:   p.Centroid,
		To:     events.Point{X: p.Centroid.X, Y: p.Location.FoldY / 2},
		Reason: fmt.Sprintf("Element sits at y=%.0f, below the fold at y=%.0f", p.Centroid.Y, p.Location.FoldY),
	}
}

func rationale(p patterns.Pattern, imp impact.BusinessImpact) string {
	return fmt.Sprintf("%d occurrences across %d sessions (%.1f%%), costing an estimated %.1f%% of conversions",
		p.Occurrences, p.SessionsAffected, p.SessionsAffectedPercent, imp.ConversionLossPercent)
}
