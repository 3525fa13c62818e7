package behavior

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/optimizer/internal/events"
)

var now = time.UnixMilli(1_700_000_000_000)

func ev(t events.Type, ageMs int64) events.Event {
	return events.Event{SessionID: "s1", Type: t, Timestamp: now.UnixMilli() - ageMs}
}

func inRange(t *testing.T, v Vector) {
	t.Helper()
	for i, d := range v.Dimensions() {
		assert.False(t, math.IsNaN(d), "dimension %d is NaN", i)
		assert.GreaterOrEqual(t, d, 0.0, "dimension %d", i)
		assert.LessOrEqual(t, d, 1.0, "dimension %d", i)
	}
}

func TestExtract_EmptyIsNeutral(t *testing.T) {
	assert.Equal(t, Neutral, Extract(nil, now))
	assert.Equal(t, Vector{0.5, 0.5, 0.5, 0.5, 0.5}, Extract([]events.Event{}, now))
}

func TestWeight_ExponentialDecay(t *testing.T) {
	assert.InDelta(t, 1.0, Weight(ev(events.TypeClick, 0), now), 1e-12)
	assert.InDelta(t, math.Exp(-1), Weight(ev(events.TypeClick, DecayWindowMs), now), 1e-12)
	// future timestamps are treated as age zero
	assert.InDelta(t, 1.0, Weight(ev(events.TypeClick, -5000), now), 1e-12)
}

func TestExtract_Exploration(t *testing.T) {
	var evs []events.Event
	for i, s := range []string{"a", "b", "c", "d", "e", "f"} {
		e := ev(events.TypeClick, int64(i))
		e.SectionID = s
		e.ElementSelector = "#el-" + s
		evs = append(evs, e)
	}
	v := Extract(evs, now)
	// sections saturate at 5, elements 6/10
	assert.InDelta(t, (1.0+0.6)/2, v.Exploration, 1e-9)
}

func TestExtract_Hesitation(t *testing.T) {
	evs := []events.Event{
		ev(events.TypeScrollReversal, 0),
		ev(events.TypeClick, 0),
		ev(events.TypeClick, 0),
		ev(events.TypeClick, 0),
		ev(events.TypeClick, 0),
		ev(events.TypeClick, 0),
	}
	v := Extract(evs, now)
	assert.InDelta(t, 3.0/6.0, v.Hesitation, 1e-9)

	all := []events.Event{ev(events.TypeExitIntent, 0), ev(events.TypeFormBlur, 0)}
	assert.Equal(t, 1.0, Extract(all, now).Hesitation)
}

func TestExtract_Engagement(t *testing.T) {
	evs := []events.Event{
		ev(events.TypeHoverIntent, 0),
		ev(events.TypeClick, 0),
		ev(events.TypeClick, 0),
		ev(events.TypeClick, 0),
	}
	assert.InDelta(t, 0.5, Extract(evs, now).Engagement, 1e-9)
}

func TestExtract_Velocity(t *testing.T) {
	evs := []events.Event{
		ev(events.TypePageView, 0),
		ev(events.TypeProductView, 0),
		ev(events.TypePurchase, 0),
	}
	v := Extract(evs, now)
	progression := (1.0 + 3.0 + 6.0) / (3.0 * 6.0)
	assert.InDelta(t, (progression+1.0)/2, v.Velocity, 1e-9)

	none := Extract([]events.Event{ev(events.TypeClick, 0)}, now)
	assert.Equal(t, 0.0, none.Velocity)
}

func TestExtract_Focus(t *testing.T) {
	mk := func(section, selector string) events.Event {
		e := ev(events.TypeClick, 0)
		e.SectionID = section
		e.ElementSelector = selector
		return e
	}
	evs := []events.Event{
		mk("gallery", ""),
		mk("gallery", ""),
		mk("gallery", ""),
		mk("", "#size"),
	}
	assert.InDelta(t, 0.75, Extract(evs, now).Focus, 1e-9)

	anonymous := []events.Event{ev(events.TypeClick, 0)}
	assert.Equal(t, 0.0, Extract(anonymous, now).Focus)
}

func TestExtract_RecencyMatters(t *testing.T) {
	fresh := []events.Event{ev(events.TypeHoverIntent, 0), ev(events.TypeClick, 30*60*1000)}
	stale := []events.Event{ev(events.TypeHoverIntent, 30*60*1000), ev(events.TypeClick, 0)}
	assert.Greater(t, Extract(fresh, now).Engagement, Extract(stale, now).Engagement)
}

func TestExtract_PureAndBounded(t *testing.T) {
	evs := []events.Event{
		ev(events.TypeHoverIntent, 100),
		ev(events.TypeHoverIntent, 200),
		ev(events.TypeTextSelection, 300),
		ev(events.TypeDeadClick, 400),
		ev(events.TypePurchase, 500),
	}
	snapshot := append([]events.Event(nil), evs...)

	a := Extract(evs, now)
	b := Extract(evs, now)
	require.Equal(t, a, b)
	assert.Equal(t, snapshot, evs)
	inRange(t, a)
}

func TestExtract_AncientWindowIsNeutral(t *testing.T) {
	evs := []events.Event{ev(events.TypeClick, 1000*DecayWindowMs)}
	assert.Equal(t, Neutral, Extract(evs, now))
}

func TestFrustration(t *testing.T) {
	assert.Equal(t, 0.0, Frustration(nil, now))

	calm := []events.Event{ev(events.TypeClick, 0), ev(events.TypeProductView, 0)}
	assert.Equal(t, 0.0, Frustration(calm, now))

	// one double click among four events: 2/4*2 = 1
	mixed := []events.Event{
		ev(events.TypeDoubleClick, 0),
		ev(events.TypeClick, 0),
		ev(events.TypeClick, 0),
		ev(events.TypeClick, 0),
	}
	assert.InDelta(t, 1.0, Frustration(mixed, now), 1e-9)

	sparse := make([]events.Event, 0, 10)
	sparse = append(sparse, ev(events.TypeDeadClick, 0))
	for i := 0; i < 9; i++ {
		sparse = append(sparse, ev(events.TypeClick, 0))
	}
	assert.InDelta(t, 0.4, Frustration(sparse, now), 1e-9)

	burst := ev(events.TypeRageClick, 0)
	burst.ClickCount = 6
	heavy := append([]events.Event{burst}, sparse[1:]...)
	// a 6-click burst counts double: 4/10*2
	assert.InDelta(t, 0.8, Frustration(heavy, now), 1e-9)
}
