package patterns

import (
	"github.com/gosight/gosight/optimizer/internal/events"
)

const (
	rageMinOccurrences    = 3
	rageMinSessionPercent = 5.0
)

// DetectRageClusters groups rage clicks that land close together
func DetectRageClusters(evs []events.Event, totalSessions int) []Pattern {
	if totalSessions <= 0 {
		return nil
	}

	var out []Pattern
	for _, members := range greedyCluster(events.OfType(evs, events.TypeRageClick), ClusterRadius) {
		p := newPattern(TypeRageCluster, members, totalSessions)
		if p.Occurrences >= rageMinOccurrences && p.SessionsAffectedPercent >= rageMinSessionPercent {
			out = append(out, p)
		}
	}
	return out
}
