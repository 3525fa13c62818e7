// Package insights assembles patterns, their impact and recommendations into
// ranked insights, and ships finished analyses to storage and alerting.
package insights

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gosight/gosight/optimizer/internal/events"
	"github.com/gosight/gosight/optimizer/internal/impact"
	"github.com/gosight/gosight/optimizer/internal/patterns"
	"github.com/gosight/gosight/optimizer/internal/problems"
	"github.com/gosight/gosight/optimizer/internal/recommend"
	"github.com/gosight/gosight/optimizer/internal/signal"
)

// MinEvents is the smallest window worth analyzing
const MinEvents = 5

// GenerateInsights runs the full pipeline over evs. When probs is nil the
// events are tagged here. Windows with fewer than MinEvents events or no
// sessions return an empty analysis with Sufficient unset.
func GenerateInsights(evs []events.Event, probs []problems.Problem, cfg impact.BusinessConfig, now time.Time) InsightsAnalysis {
	a := InsightsAnalysis{
		ProjectID:     projectOf(evs),
		GeneratedAt:   now,
		TotalEvents:   len(evs),
		TotalSessions: events.CountSessions(evs),
		Insights:      []Insight{},
	}

	if a.TotalEvents < MinEvents || a.TotalSessions == 0 {
		a.Summary = fmt.Sprintf("Not enough data to generate insights: %d events across %d sessions, need at least %d events from one or more sessions",
			a.TotalEvents, a.TotalSessions, MinEvents)
		return a
	}
	a.Sufficient = true

	if probs == nil {
		probs = problems.Tag(evs)
	}
	a.Problems = probs

	found := patterns.Aggregate(evs, probs)
	a.PatternsDetected = len(found)

	candidates := make([]Insight, 0, len(found))
	for _, p := range found {
		candidates = append(candidates, assemble(a.ProjectID, p, cfg, now))
	}

	a.Insights = signal.Select(candidates, func(in Insight) signal.Key {
		return signal.Key{
			Strength: in.Signal,
			Urgency:  in.Impact.UrgencyScore,
			Revenue:  in.Impact.RevenueLossPerMonth,
		}
	})
	a.TotalInsights = len(a.Insights)
	for _, in := range a.Insights {
		a.TotalRevenueAtRisk += in.Impact.RevenueLossPerMonth
	}
	a.Summary = summarize(a)
	return a
}

func assemble(projectID string, p patterns.Pattern, cfg impact.BusinessConfig, now time.Time) Insight {
	imp := impact.Calculate(p, cfg)
	in := Insight{
		ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.ID+"@"+strconv.FormatInt(now.UnixMilli(), 10))).String(),
		ProjectID:      projectID,
		Type:           p.Type,
		Title:          Title(p),
		Pattern:        p,
		Impact:         imp,
		Recommendation: recommend.Generate(p, imp),
		Signal:         signal.Evaluate(p, now),
		GeneratedAt:    now,
	}
	in.Summary = fmt.Sprintf("%d occurrences in %d sessions (%.1f%%). Estimated %.1f%% conversion loss, about %.0f per month.",
		p.Occurrences, p.SessionsAffected, p.SessionsAffectedPercent, imp.ConversionLossPercent, imp.RevenueLossPerMonth)
	return in
}

// Title is the one-line headline for a pattern
func Title(p patterns.Pattern) string {
	target := label(p)
	switch p.Type {
	case patterns.TypeRageCluster:
		return "Rage clicks on " + target
	case patterns.TypeDeadClickHotspot:
		return "Clicks on " + target + " do nothing"
	case patterns.TypeScrollAbandonment:
		return "Visitors leave before scrolling halfway"
	case patterns.TypeElementConfusion:
		return "Shoppers are unsure whether " + target + " is clickable"
	case patterns.TypePriceAnxiety:
		return "Shoppers keep rechecking prices"
	case patterns.TypeCTAInvisibility:
		return "Call to action " + target + " is easy to miss"
	default:
		return "Friction detected on " + target
	}
}

func label(p patterns.Pattern) string {
	if len(p.ElementTexts) > 0 {
		return strconv.Quote(p.ElementTexts[0])
	}
	if len(p.ElementSelectors) > 0 {
		return p.ElementSelectors[0]
	}
	return "the page"
}

func summarize(a InsightsAnalysis) string {
	if a.TotalInsights == 0 {
		return fmt.Sprintf("No significant conversion issues found across %d sessions", a.TotalSessions)
	}
	return fmt.Sprintf("%d insights from %d patterns across %d sessions, about %.0f per month at risk. Top issue: %s",
		a.TotalInsights, a.PatternsDetected, a.TotalSessions, a.TotalRevenueAtRisk, a.Insights[0].Title)
}

func projectOf(evs []events.Event) string {
	for _, e := range evs {
		if e.ProjectID != "" {
			return e.ProjectID
		}
	}
	return ""
}
