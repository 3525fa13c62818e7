package patterns

// Zone is the vertical page region a pattern sits in
type Zone string

const (
	ZoneAboveFold Zone = "above_fold"
	ZoneMidPage   Zone = "mid_page"
	ZoneBelowFold Zone = "below_fold"
	ZoneFooter    Zone = "footer"
)

// DefaultViewport is assumed when no source event reports one
const (
	DefaultViewportWidth  = 1280.0
	DefaultViewportHeight = 800.0
)

// Location places a pattern relative to the fold. Known is false when the
// pattern has no coordinates or no viewport to measure against.
type Location struct {
	Zone  Zone    `json:"zone"`
	Y     float64 `json:"y"`
	FoldY float64 `json:"fold_y"`
	Known bool    `json:"known"`
}

// AboveFold reports whether the pattern is visible without scrolling
func (l Location) AboveFold() bool {
	return l.Known && l.Zone == ZoneAboveFold
}

// BelowFold reports whether the user must scroll to reach the pattern
func (l Location) BelowFold() bool {
	return l.Known && (l.Zone == ZoneBelowFold || l.Zone == ZoneFooter)
}

// Locate derives the zone from the centroid and the mean viewport height
func Locate(p Pattern) Location {
	fold := meanViewportHeight(p)
	loc := Location{Zone: ZoneMidPage, Y: p.Centroid.Y, FoldY: fold}

	hasPosition := p.Type == TypeScrollAbandonment || len(positions(p.SourceEvents)) > 0
	if fold <= 0 || !hasPosition {
		return loc
	}

	loc.Known = true

	// The fold marker stands for content the sessions never reached
	if p.Type == TypeScrollAbandonment {
		loc.Zone = ZoneMidPage
		return loc
	}

	switch y := p.Centroid.Y; {
	case y <= fold:
		loc.Zone = ZoneAboveFold
	case y <= 2.5*fold:
		loc.Zone = ZoneMidPage
	case y <= 4*fold:
		loc.Zone = ZoneBelowFold
	default:
		loc.Zone = ZoneFooter
	}
	return loc
}

func meanViewportHeight(p Pattern) float64 {
	var sum float64
	var n int
	for _, e := range p.SourceEvents {
		if e.Viewport != nil && e.Viewport.Height > 0 {
			sum += e.Viewport.Height
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
