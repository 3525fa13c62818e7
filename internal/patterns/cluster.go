package patterns

import (
	"sort"

	"github.com/gosight/gosight/optimizer/internal/events"
)

// ClusterRadius is the absorb distance for greedy clustering, in page units
const ClusterRadius = 50.0

// canonical returns a copy of evs ordered by timestamp then id, so the greedy
// seed choice does not depend on how the caller ordered the input
func canonical(evs []events.Event) []events.Event {
	out := make([]events.Event, len(evs))
	copy(out, evs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// greedyCluster groups positioned events. The first unassigned event seeds a
// cluster which absorbs every later unassigned event within radius of the
// cluster's running centroid. Events without coordinates are ignored.
func greedyCluster(evs []events.Event, radius float64) [][]events.Event {
	ordered := canonical(evs)

	var pts []events.Point
	var src []events.Event
	for _, e := range ordered {
		if p, ok := e.Position(); ok {
			pts = append(pts, p)
			src = append(src, e)
		}
	}

	assigned := make([]bool, len(pts))
	var clusters [][]events.Event
	for seed := range pts {
		if assigned[seed] {
			continue
		}
		assigned[seed] = true
		members := []events.Event{src[seed]}
		c := pts[seed]
		sumX, sumY := c.X, c.Y

		for i := seed + 1; i < len(pts); i++ {
			if assigned[i] || distance(pts[i], c) > radius {
				continue
			}
			assigned[i] = true
			members = append(members, src[i])
			sumX += pts[i].X
			sumY += pts[i].Y
			n := float64(len(members))
			c = events.Point{X: sumX / n, Y: sumY / n}
		}
		clusters = append(clusters, members)
	}
	return clusters
}
