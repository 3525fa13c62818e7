// Package patterns clusters friction events into spatial and temporal patterns.
package patterns

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/gosight/gosight/optimizer/internal/events"
	"github.com/gosight/gosight/optimizer/internal/problems"
)

// Type is the friction kind a detector produces
type Type string

const (
	TypeRageCluster       Type = "rage_cluster"
	TypeDeadClickHotspot  Type = "dead_click_hotspot"
	TypeScrollAbandonment Type = "scroll_abandonment"
	TypeElementConfusion  Type = "element_confusion"
	TypePriceAnxiety      Type = "price_anxiety"
	// TypeCTAInvisibility has no detector; it arrives from linked problems
	// or callers building patterns by hand.
	TypeCTAInvisibility Type = "cta_invisibility"
)

// Pattern is a cluster of friction events from one detector. Occurrences
// always equals len(SourceEvents).
type Pattern struct {
	ID                      string            `json:"id"`
	Type                    Type              `json:"type"`
	Centroid                events.Point      `json:"centroid"`
	Radius                  float64           `json:"radius"`
	Occurrences             int               `json:"occurrences"`
	SessionsAffected        int               `json:"sessions_affected"`
	SessionsAffectedPercent float64           `json:"sessions_affected_percent"`
	ElementSelectors        []string          `json:"element_selectors"`
	ElementTexts            []string          `json:"element_texts"`
	SourceEvents            []events.Event    `json:"-"`
	LinkedProblems          []string          `json:"linked_problems"`
	Severity                problems.Severity `json:"severity"`
	Location                Location          `json:"location"`
}

// Rank is the global ordering key, higher first
func (p Pattern) Rank() float64 {
	return float64(p.Occurrences) * p.SessionsAffectedPercent
}

// newPattern derives every count from src; totalSessions must be positive
func newPattern(t Type, src []events.Event, totalSessions int) Pattern {
	p := Pattern{
		Type:         t,
		Occurrences:  len(src),
		SourceEvents: src,
	}

	sessions := events.CountSessions(src)
	p.SessionsAffected = sessions
	if totalSessions > 0 {
		p.SessionsAffectedPercent = float64(sessions) / float64(totalSessions) * 100
	}

	p.ElementSelectors = distinct(src, func(e events.Event) string { return e.ElementSelector })
	p.ElementTexts = distinct(src, func(e events.Event) string { return e.ElementText })

	if pts := positions(src); len(pts) > 0 {
		p.Centroid = centroid(pts)
		p.Radius = spread(pts, p.Centroid)
	}

	p.ID = patternID(t, src)
	p.Location = Locate(p)
	return p
}

// patternID is stable for the same type and member events
func patternID(t Type, src []events.Event) string {
	ids := make([]string, len(src))
	for i, e := range src {
		ids[i] = e.ID
	}
	sort.Strings(ids)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(t)+"|"+strings.Join(ids, ","))).String()
}

func distinct(src []events.Event, field func(events.Event) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range src {
		v := field(e)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func positions(src []events.Event) []events.Point {
	var pts []events.Point
	for _, e := range src {
		if p, ok := e.Position(); ok {
			pts = append(pts, p)
		}
	}
	return pts
}

func centroid(pts []events.Point) events.Point {
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return events.Point{X: sx / n, Y: sy / n}
}

func spread(pts []events.Point, c events.Point) float64 {
	var r float64
	for _, p := range pts {
		r = math.Max(r, distance(p, c))
	}
	return r
}

func distance(a, b events.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
