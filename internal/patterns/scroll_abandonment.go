package patterns

import (
	"github.com/gosight/gosight/optimizer/internal/events"
)

const (
	scrollShallowDepth      = 50.0
	scrollMinSessions       = 3
	scrollMinSessionPercent = 5.0
)

// DetectScrollAbandonment reports sessions that never scrolled halfway down.
// Each abandoning session contributes its deepest scroll event, and the
// centroid is a marker on the fold line rather than a click position.
func DetectScrollAbandonment(evs []events.Event, totalSessions int) []Pattern {
	if totalSessions <= 0 {
		return nil
	}

	deepest := make(map[string]events.Event)
	var order []string
	for _, e := range canonical(evs) {
		if e.Type != events.TypeScrollDepth || e.ScrollDepth == nil {
			continue
		}
		cur, ok := deepest[e.SessionID]
		if !ok {
			order = append(order, e.SessionID)
		}
		if !ok || *e.ScrollDepth > *cur.ScrollDepth {
			deepest[e.SessionID] = e
		}
	}

	var src []events.Event
	for _, sid := range order {
		if e := deepest[sid]; *e.ScrollDepth < scrollShallowDepth {
			src = append(src, e)
		}
	}
	if len(src) < scrollMinSessions {
		return nil
	}

	p := newPattern(TypeScrollAbandonment, src, totalSessions)
	if p.SessionsAffectedPercent < scrollMinSessionPercent {
		return nil
	}

	w, h := meanViewport(src)
	p.Centroid = events.Point{X: w / 2, Y: h}
	p.Radius = 0
	p.Location = Locate(p)
	return []Pattern{p}
}

func meanViewport(src []events.Event) (float64, float64) {
	var sw, sh float64
	var n int
	for _, e := range src {
		if e.Viewport != nil && e.Viewport.Width > 0 && e.Viewport.Height > 0 {
			sw += e.Viewport.Width
			sh += e.Viewport.Height
			n++
		}
	}
	if n == 0 {
		return DefaultViewportWidth, DefaultViewportHeight
	}
	return sw / float64(n), sh / float64(n)
}
