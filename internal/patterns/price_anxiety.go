package patterns

import (
	"github.com/gosight/gosight/optimizer/internal/events"
)

const (
	priceMinChecks         = 5
	priceMinSessionPercent = 1.0
)

// DetectPriceAnxiety flags sessions that keep going back to the price
func DetectPriceAnxiety(evs []events.Event, totalSessions int) []Pattern {
	if totalSessions <= 0 {
		return nil
	}

	checks := make(map[string][]events.Event)
	var order []string
	for _, e := range canonical(evs) {
		if e.Type != events.TypePriceCheck {
			continue
		}
		if _, ok := checks[e.SessionID]; !ok {
			order = append(order, e.SessionID)
		}
		checks[e.SessionID] = append(checks[e.SessionID], e)
	}

	var src []events.Event
	for _, sid := range order {
		if len(checks[sid]) >= priceMinChecks {
			src = append(src, checks[sid]...)
		}
	}
	if len(src) == 0 {
		return nil
	}

	p := newPattern(TypePriceAnxiety, src, totalSessions)
	if p.SessionsAffectedPercent < priceMinSessionPercent {
		return nil
	}
	return []Pattern{p}
}
