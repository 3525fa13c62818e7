// Package problems tags friction problems with simple per-selector rules.
// Patterns link back to these tags.
package problems

import (
	"fmt"
	"sort"

	"github.com/gosight/gosight/optimizer/internal/events"
)

// Severity of a problem or pattern
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank orders severities, unknown values rank lowest
func (s Severity) Rank() int {
	return severityRank[s]
}

// Bump raises the severity one level, critical stays critical
func (s Severity) Bump() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// Max returns the more severe of a and b
func Max(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Category of a tagged problem
type Category string

const (
	CategoryUnresponsiveElement Category = "unresponsive_element"
	CategoryBrokenInteraction   Category = "broken_interaction"
	CategoryFormFriction        Category = "form_friction"
	CategoryContentVisibility   Category = "content_visibility"
	CategoryPricingConcern      Category = "pricing_concern"
	CategoryUnclearUI           Category = "unclear_ui"
)

// Problem is a rule-based friction tag
type Problem struct {
	ID              string   `json:"id"`
	Category        Category `json:"category"`
	Severity        Severity `json:"severity"`
	ElementSelector string   `json:"element_selector,omitempty"`
	Description     string   `json:"description"`
	Occurrences     int      `json:"occurrences"`
}

const (
	minRageClicks      = 3
	minDeadClicks      = 3
	minFormErrors      = 2
	minShallowSessions = 3
	shallowScrollDepth = 50
	minPriceChecks     = 5
	minConfusedDead    = 2
	minConfusedDoubles = 1
)

// Tag runs every rule over evs. Output is sorted by id so repeated runs
// over the same input agree.
func Tag(evs []events.Event) []Problem {
	var out []Problem

	bySelector := countBySelector(evs)
	for sel, counts := range bySelector {
		if n := counts[events.TypeRageClick]; n >= minRageClicks {
			out = append(out, newProblem(CategoryUnresponsiveElement, SeverityHigh, sel, n,
				fmt.Sprintf("%d rage clicks on %s", n, sel)))
		}
		if n := counts[events.TypeDeadClick]; n >= minDeadClicks {
			out = append(out, newProblem(CategoryBrokenInteraction, SeverityMedium, sel, n,
				fmt.Sprintf("%d clicks on %s produced no response", n, sel)))
		}
		if n := counts[events.TypeFormError]; n >= minFormErrors {
			out = append(out, newProblem(CategoryFormFriction, SeverityHigh, sel, n,
				fmt.Sprintf("%d validation errors on %s", n, sel)))
		}
		dead, doubles := counts[events.TypeDeadClick], counts[events.TypeDoubleClick]
		if dead >= minConfusedDead && doubles >= minConfusedDoubles {
			out = append(out, newProblem(CategoryUnclearUI, SeverityMedium, sel, dead+doubles,
				fmt.Sprintf("%s draws repeated dead and double clicks", sel)))
		}
	}

	if n := shallowSessions(evs); n >= minShallowSessions {
		out = append(out, newProblem(CategoryContentVisibility, SeverityMedium, "", n,
			fmt.Sprintf("%d sessions never scrolled past %d%%", n, shallowScrollDepth)))
	}

	if n := priceAnxiousSessions(evs); n >= 1 {
		out = append(out, newProblem(CategoryPricingConcern, SeverityLow, "", n,
			fmt.Sprintf("%d sessions checked prices %d or more times", n, minPriceChecks)))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func newProblem(cat Category, sev Severity, selector string, n int, desc string) Problem {
	id := string(cat)
	if selector != "" {
		id += ":" + selector
	}
	return Problem{
		ID:              id,
		Category:        cat,
		Severity:        sev,
		ElementSelector: selector,
		Description:     desc,
		Occurrences:     n,
	}
}

func countBySelector(evs []events.Event) map[string]map[events.Type]int {
	counts := make(map[string]map[events.Type]int)
	for _, e := range evs {
		if e.ElementSelector == "" {
			continue
		}
		m, ok := counts[e.ElementSelector]
		if !ok {
			m = make(map[events.Type]int)
			counts[e.ElementSelector] = m
		}
		m[e.Type]++
	}
	return counts
}

func shallowSessions(evs []events.Event) int {
	maxDepth := make(map[string]float64)
	for _, e := range evs {
		if e.Type != events.TypeScrollDepth || e.ScrollDepth == nil {
			continue
		}
		if d, ok := maxDepth[e.SessionID]; !ok || *e.ScrollDepth > d {
			maxDepth[e.SessionID] = *e.ScrollDepth
		}
	}
	n := 0
	for _, d := range maxDepth {
		if d < shallowScrollDepth {
			n++
		}
	}
	return n
}

func priceAnxiousSessions(evs []events.Event) int {
	checks := make(map[string]int)
	for _, e := range evs {
		if e.Type == events.TypePriceCheck {
			checks[e.SessionID]++
		}
	}
	n := 0
	for _, c := range checks {
		if c >= minPriceChecks {
			n++
		}
	}
	return n
}
