// Package signal scores how much evidence stands behind a pattern and keeps
// only the strongest ones.
package signal

import (
	"math"
	"sort"
	"time"

	"github.com/gosight/gosight/optimizer/internal/events"
	"github.com/gosight/gosight/optimizer/internal/patterns"
	"github.com/gosight/gosight/optimizer/internal/problems"
)

const (
	// SignificanceThreshold is the minimum score a pattern needs to be shown
	SignificanceThreshold = 30
	// MaxResults caps the filtered list
	MaxResults = 10
)

const (
	frequencyWeight   = 0.20
	coverageWeight    = 0.25
	severityWeight    = 0.25
	recencyWeight     = 0.15
	consistencyWeight = 0.15
)

// Factors is the per-factor breakdown of a score
type Factors struct {
	Frequency       int `json:"frequency"`
	SessionCoverage int `json:"session_coverage"`
	Severity        int `json:"severity"`
	Recency         int `json:"recency"`
	Consistency     int `json:"consistency"`
}

// Strength is the composite evidence score of a pattern
type Strength struct {
	Score           int     `json:"score"`
	FactorBreakdown Factors `json:"factor_breakdown"`
	IsSignificant   bool    `json:"is_significant"`
}

type tier struct {
	min   float64
	score int
}

var (
	frequencyTiers   = []tier{{20, 40}, {10, 30}, {5, 20}}
	coverageTiers    = []tier{{25, 40}, {10, 30}, {5, 20}}
	consistencyTiers = []tier{{0.5, 30}, {0.25, 20}}
)

var severityScores = map[problems.Severity]int{
	problems.SeverityCritical: 40,
	problems.SeverityHigh:     30,
	problems.SeverityMedium:   20,
	problems.SeverityLow:      10,
}

const floorScore = 10

func lookup(tiers []tier, v float64) int {
	for _, t := range tiers {
		if v >= t.min {
			return t.score
		}
	}
	return floorScore
}

// FrequencyScore rates the raw occurrence count, 10 to 40
func FrequencyScore(occurrences int) int {
	return lookup(frequencyTiers, float64(occurrences))
}

// CoverageScore rates the share of sessions affected, 10 to 40
func CoverageScore(sessionsPercent float64) int {
	return lookup(coverageTiers, sessionsPercent)
}

// SeverityScore rates the pattern severity, 10 to 40
func SeverityScore(s problems.Severity) int {
	if v, ok := severityScores[s]; ok {
		return v
	}
	return floorScore
}

// RecencyScore rates the age of the newest source event, 10 to 30.
// Patterns without source events score the floor.
func RecencyScore(src []events.Event, now time.Time) int {
	if len(src) == 0 {
		return floorScore
	}
	newest := src[0].Timestamp
	for _, e := range src[1:] {
		if e.Timestamp > newest {
			newest = e.Timestamp
		}
	}
	age := time.Duration(now.UnixMilli()-newest) * time.Millisecond
	switch {
	case age <= time.Hour:
		return 30
	case age <= 24*time.Hour:
		return 20
	default:
		return floorScore
	}
}

// ConsistencyScore rates the share of affected sessions that hit the
// pattern more than once, 10 to 30
func ConsistencyScore(src []events.Event) int {
	perSession := make(map[string]int)
	for _, e := range src {
		if e.SessionID != "" {
			perSession[e.SessionID]++
		}
	}
	if len(perSession) == 0 {
		return floorScore
	}
	repeat := 0
	for _, n := range perSession {
		if n >= 2 {
			repeat++
		}
	}
	return lookup(consistencyTiers, float64(repeat)/float64(len(perSession)))
}

// Evaluate scores p as of now
func Evaluate(p patterns.Pattern, now time.Time) Strength {
	f := Factors{
		Frequency:       FrequencyScore(p.Occurrences),
		SessionCoverage: CoverageScore(p.SessionsAffectedPercent),
		Severity:        SeverityScore(p.Severity),
		Recency:         RecencyScore(p.SourceEvents, now),
		Consistency:     ConsistencyScore(p.SourceEvents),
	}
	score := frequencyWeight*float64(f.Frequency) +
		coverageWeight*float64(f.SessionCoverage) +
		severityWeight*float64(f.Severity) +
		recencyWeight*float64(f.Recency) +
		consistencyWeight*float64(f.Consistency)

	s := int(math.Round(math.Max(0, math.Min(score, 100))))
	return Strength{
		Score:           s,
		FactorBreakdown: f,
		IsSignificant:   s >= SignificanceThreshold,
	}
}

// Key is what Select ranks an item by
type Key struct {
	Strength Strength
	Urgency  int
	Revenue  float64
}

// Select drops insignificant items, orders the rest by urgency, then signal
// score, then revenue, all descending, and keeps the first MaxResults.
// The input slice is not modified.
func Select[T any](items []T, key func(T) Key) []T {
	kept := make([]T, 0, len(items))
	keys := make([]Key, 0, len(items))
	for _, it := range items {
		k := key(it)
		if !k.Strength.IsSignificant {
			continue
		}
		kept = append(kept, it)
		keys = append(keys, k)
	}

	idx := make([]int, len(kept))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.Urgency != kb.Urgency {
			return ka.Urgency > kb.Urgency
		}
		if ka.Strength.Score != kb.Strength.Score {
			return ka.Strength.Score > kb.Strength.Score
		}
		return ka.Revenue > kb.Revenue
	})

	if len(idx) > MaxResults {
		idx = idx[:MaxResults]
	}
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = kept[j]
	}
	return out
}
