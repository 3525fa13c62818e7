package behavior

import (
	"math"
	"time"

	"github.com/gosight/gosight/optimizer/internal/events"
)

// rageClickBurst is the click count a single rage_click event is expected to carry
const rageClickBurst = 3

// Frustration scores click-level frustration in [0,1]. Rage, dead and double
// clicks each weigh 2; rage clicks that report a larger burst weigh
// proportionally more.
func Frustration(evs []events.Event, now time.Time) float64 {
	var mass, total float64
	for _, ev := range evs {
		w := Weight(ev, now)
		total += w
		switch ev.Type {
		case events.TypeRageClick:
			scale := 1.0
			if ev.ClickCount > rageClickBurst {
				scale = float64(ev.ClickCount) / rageClickBurst
			}
			mass += 2 * scale * w
		case events.TypeDeadClick, events.TypeDoubleClick:
			mass += 2 * w
		}
	}
	if total == 0 {
		return 0
	}
	return math.Min(mass/total*2, 1)
}
