package patterns

import (
	"sort"

	"github.com/gosight/gosight/optimizer/internal/events"
	"github.com/gosight/gosight/optimizer/internal/problems"
)

// Detector produces zero or more patterns from a window
type Detector func(evs []events.Event, totalSessions int) []Pattern

// Detectors run in this order before the global sort
var Detectors = []Detector{
	DetectRageClusters,
	DetectDeadClickHotspots,
	DetectScrollAbandonment,
	DetectElementConfusion,
	DetectPriceAnxiety,
}

// problemPatternTypes links a problem category to the pattern type it explains
var problemPatternTypes = map[problems.Category]Type{
	problems.CategoryUnresponsiveElement: TypeRageCluster,
	problems.CategoryBrokenInteraction:   TypeDeadClickHotspot,
	problems.CategoryContentVisibility:   TypeScrollAbandonment,
	problems.CategoryUnclearUI:           TypeElementConfusion,
	problems.CategoryPricingConcern:      TypePriceAnxiety,
}

// defaultSeverity is used when no linked problem is more severe
var defaultSeverity = map[Type]problems.Severity{
	TypeRageCluster:       problems.SeverityHigh,
	TypeDeadClickHotspot:  problems.SeverityMedium,
	TypeScrollAbandonment: problems.SeverityMedium,
	TypeElementConfusion:  problems.SeverityMedium,
	TypePriceAnxiety:      problems.SeverityLow,
	TypeCTAInvisibility:   problems.SeverityHigh,
}

// severityBumpPercent escalates severity for patterns hitting most sessions
const severityBumpPercent = 50.0

// Aggregate runs every detector over evs, links the tagged problems and
// returns patterns ordered by occurrences × sessionsAffectedPercent.
func Aggregate(evs []events.Event, probs []problems.Problem) []Pattern {
	totalSessions := events.CountSessions(evs)
	if totalSessions == 0 {
		return nil
	}

	var all []Pattern
	for _, detect := range Detectors {
		all = append(all, detect(evs, totalSessions)...)
	}

	for i := range all {
		all[i].LinkedProblems = linkProblems(all[i], probs)
		all[i].Severity = severityFor(all[i], probs)
	}

	sort.SliceStable(all, func(i, j int) bool {
		ri, rj := all[i].Rank(), all[j].Rank()
		if ri != rj {
			return ri > rj
		}
		if all[i].Type != all[j].Type {
			return all[i].Type < all[j].Type
		}
		return all[i].ID < all[j].ID
	})
	return all
}

func linkProblems(p Pattern, probs []problems.Problem) []string {
	selectors := make(map[string]bool, len(p.ElementSelectors))
	for _, s := range p.ElementSelectors {
		selectors[s] = true
	}

	linked := []string{}
	for _, pr := range probs {
		bySelector := pr.ElementSelector != "" && selectors[pr.ElementSelector]
		byCategory := problemPatternTypes[pr.Category] == p.Type
		if bySelector || byCategory {
			linked = append(linked, pr.ID)
		}
	}
	return linked
}

func severityFor(p Pattern, probs []problems.Problem) problems.Severity {
	sev, ok := defaultSeverity[p.Type]
	if !ok {
		sev = problems.SeverityMedium
	}

	linked := make(map[string]bool, len(p.LinkedProblems))
	for _, id := range p.LinkedProblems {
		linked[id] = true
	}
	for _, pr := range probs {
		if linked[pr.ID] {
			sev = problems.Max(sev, pr.Severity)
		}
	}

	if p.SessionsAffectedPercent >= severityBumpPercent {
		sev = sev.Bump()
	}
	return sev
}
