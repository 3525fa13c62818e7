package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosight/gosight/optimizer/internal/behavior"
)

func sig(exploration, hesitation, engagement, velocity, focus, frustration float64) Signals {
	return Signals{
		Vector: behavior.Vector{
			Exploration: exploration,
			Hesitation:  hesitation,
			Engagement:  engagement,
			Velocity:    velocity,
			Focus:       focus,
		},
		Frustration: frustration,
	}
}

func TestClassifyRuleBased_Cascade(t *testing.T) {
	tests := []struct {
		name string
		in   Signals
		want State
	}{
		{"frustration wins over everything", sig(0.9, 0.9, 0.9, 0.9, 0.9, 0.61), StateFrustrated},
		{"frustration at threshold does not fire", sig(0.5, 0.5, 0.5, 0.5, 0.5, 0.6), StateCautious},
		{"overwhelmed before exploratory", sig(0.7, 0.8, 0.3, 0.3, 0.3, 0), StateOverwhelmed},
		{"confident", sig(0.2, 0.1, 0.2, 0.8, 0.2, 0), StateConfident},
		{"ready to decide", sig(0.2, 0.35, 0.7, 0.65, 0.2, 0), StateReadyToDecide},
		{"comparison focused", sig(0.2, 0.5, 0.8, 0.5, 0.7, 0), StateComparisonFocused},
		{"impulse buyer", sig(0.2, 0.5, 0.3, 0.8, 0.2, 0), StateImpulseBuyer},
		{"cautious by rule", sig(0.2, 0.5, 0.65, 0.3, 0.2, 0), StateCautious},
		{"exploratory", sig(0.7, 0.5, 0.5, 0.5, 0.5, 0), StateExploratory},
		{"default", sig(0.5, 0.5, 0.5, 0.5, 0.5, 0), StateCautious},
		{"all zero", sig(0, 0, 0, 0, 0, 0), StateCautious},
		{"all one", sig(1, 1, 1, 1, 1, 1), StateFrustrated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyRuleBased(tt.in)
			assert.Equal(t, tt.want, got.State)
			assert.True(t, got.State.Valid())
			assert.Equal(t, SourceRules, got.Source)
			assert.NotEmpty(t, got.Reasoning)
		})
	}
}

func TestClassifyRuleBased_Pure(t *testing.T) {
	in := sig(0.3, 0.6, 0.4, 0.2, 0.9, 0.1)
	assert.Equal(t, ClassifyRuleBased(in), ClassifyRuleBased(in))
}

func TestCascade_EndsWithCatchAll(t *testing.T) {
	last := Cascade[len(Cascade)-1]
	assert.Equal(t, StateCautious, last.State)
	assert.True(t, last.Match(Signals{}))
	for _, r := range Cascade {
		assert.True(t, r.State.Valid(), r.Name)
	}
}

func TestConfidence_Bounds(t *testing.T) {
	assert.InDelta(t, 0.6, Confidence(sig(0.5, 0.5, 0.5, 0.5, 0.5, 0)), 1e-12)
	assert.InDelta(t, 0.75, Confidence(sig(0, 0, 0, 0, 0, 0)), 1e-12)
	assert.InDelta(t, 0.75, Confidence(sig(1, 1, 1, 1, 1, 1)), 1e-12)
	// 0.6 + 0.3 * mean(0.2, 0.3, 0.2, 0.2, 0.2)
	assert.InDelta(t, 0.6+0.3*0.22, Confidence(sig(0.7, 0.8, 0.3, 0.3, 0.3, 0)), 1e-12)
}

func TestStateValid(t *testing.T) {
	assert.Len(t, States, 8)
	assert.False(t, State("angry").Valid())
	assert.False(t, State("").Valid())
}
