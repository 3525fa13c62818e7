package patterns

import (
	"sort"

	"github.com/gosight/gosight/optimizer/internal/events"
)

const (
	deadMinOccurrences    = 3
	deadMinSessionPercent = 1.0
)

// DetectDeadClickHotspots finds elements that swallow clicks. Clicks are first
// grouped by selector; clicks on selectors that did not form a hotspot are
// then clustered by position.
func DetectDeadClickHotspots(evs []events.Event, totalSessions int) []Pattern {
	if totalSessions <= 0 {
		return nil
	}

	dead := canonical(events.OfType(evs, events.TypeDeadClick))

	bySelector := make(map[string][]events.Event)
	var selectors []string
	for _, e := range dead {
		if e.ElementSelector == "" {
			continue
		}
		if _, ok := bySelector[e.ElementSelector]; !ok {
			selectors = append(selectors, e.ElementSelector)
		}
		bySelector[e.ElementSelector] = append(bySelector[e.ElementSelector], e)
	}
	sort.Strings(selectors)

	var out []Pattern
	covered := make(map[string]bool)
	for _, sel := range selectors {
		p := newPattern(TypeDeadClickHotspot, bySelector[sel], totalSessions)
		if keepDeadClick(p) {
			out = append(out, p)
			covered[sel] = true
		}
	}

	var rest []events.Event
	for _, e := range dead {
		if e.ElementSelector != "" && covered[e.ElementSelector] {
			continue
		}
		rest = append(rest, e)
	}
	for _, members := range greedyCluster(rest, ClusterRadius) {
		p := newPattern(TypeDeadClickHotspot, members, totalSessions)
		if keepDeadClick(p) {
			out = append(out, p)
		}
	}

	return out
}

func keepDeadClick(p Pattern) bool {
	return p.Occurrences >= deadMinOccurrences && p.SessionsAffectedPercent >= deadMinSessionPercent
}
