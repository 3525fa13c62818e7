package patterns

import (
	"sort"

	"github.com/gosight/gosight/optimizer/internal/events"
)

const (
	confusionMinDead    = 2
	confusionMinDoubles = 1
)

// DetectElementConfusion finds elements that collect both dead clicks and
// double clicks, a sign the shopper cannot tell whether they are interactive
func DetectElementConfusion(evs []events.Event, totalSessions int) []Pattern {
	if totalSessions <= 0 {
		return nil
	}

	dead := make(map[string][]events.Event)
	doubles := make(map[string][]events.Event)
	for _, e := range canonical(evs) {
		if e.ElementSelector == "" {
			continue
		}
		switch e.Type {
		case events.TypeDeadClick:
			dead[e.ElementSelector] = append(dead[e.ElementSelector], e)
		case events.TypeDoubleClick:
			doubles[e.ElementSelector] = append(doubles[e.ElementSelector], e)
		}
	}

	var selectors []string
	for sel := range dead {
		if len(dead[sel]) >= confusionMinDead && len(doubles[sel]) >= confusionMinDoubles {
			selectors = append(selectors, sel)
		}
	}
	sort.Strings(selectors)

	var out []Pattern
	for _, sel := range selectors {
		src := make([]events.Event, 0, len(dead[sel])+len(doubles[sel]))
		src = append(src, dead[sel]...)
		src = append(src, doubles[sel]...)
		out = append(out, newPattern(TypeElementConfusion, canonical(src), totalSessions))
	}
	return out
}
