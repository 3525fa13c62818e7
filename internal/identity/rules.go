package identity

import (
	"context"
	"fmt"
	"math"
)

// Rule is one entry of the classification cascade
type Rule struct {
	Name      string
	State     State
	Condition string
	Match     func(Signals) bool
}

// Cascade is evaluated top to bottom, first match wins. The last entry
// always matches.
var Cascade = []Rule{
	{
		Name:      "high_frustration",
		State:     StateFrustrated,
		Condition: "frustration > 0.6",
		Match:     func(s Signals) bool { return s.Frustration > 0.6 },
	},
	{
		Name:      "hesitant_explorer",
		State:     StateOverwhelmed,
		Condition: "hesitation > 0.7 and exploration > 0.6",
		Match: func(s Signals) bool {
			return s.Vector.Hesitation > 0.7 && s.Vector.Exploration > 0.6
		},
	},
	{
		Name:      "fast_and_sure",
		State:     StateConfident,
		Condition: "velocity > 0.7 and hesitation < 0.3",
		Match: func(s Signals) bool {
			return s.Vector.Velocity > 0.7 && s.Vector.Hesitation < 0.3
		},
	},
	{
		Name:      "engaged_progressing",
		State:     StateReadyToDecide,
		Condition: "engagement > 0.6 and velocity > 0.6 and hesitation < 0.4",
		Match: func(s Signals) bool {
			return s.Vector.Engagement > 0.6 && s.Vector.Velocity > 0.6 && s.Vector.Hesitation < 0.4
		},
	},
	{
		Name:      "focused_engagement",
		State:     StateComparisonFocused,
		Condition: "engagement > 0.7 and focus > 0.6",
		Match: func(s Signals) bool {
			return s.Vector.Engagement > 0.7 && s.Vector.Focus > 0.6
		},
	},
	{
		Name:      "fast_shallow",
		State:     StateImpulseBuyer,
		Condition: "velocity > 0.7 and engagement < 0.4",
		Match: func(s Signals) bool {
			return s.Vector.Velocity > 0.7 && s.Vector.Engagement < 0.4
		},
	},
	{
		Name:      "slow_engaged",
		State:     StateCautious,
		Condition: "velocity < 0.4 and engagement > 0.6",
		Match: func(s Signals) bool {
			return s.Vector.Velocity < 0.4 && s.Vector.Engagement > 0.6
		},
	},
	{
		Name:      "wide_browsing",
		State:     StateExploratory,
		Condition: "exploration > 0.6",
		Match:     func(s Signals) bool { return s.Vector.Exploration > 0.6 },
	},
	{
		Name:      "default",
		State:     StateCautious,
		Condition: "no other rule matched",
		Match:     func(Signals) bool { return true },
	},
}

// Match returns the first cascade rule that accepts sig
func Match(sig Signals) Rule {
	for _, r := range Cascade {
		if r.Match(sig) {
			return r
		}
	}
	return Cascade[len(Cascade)-1]
}

// Confidence is 0.6 plus 0.3 times the mean distance of each dimension from
// the neutral 0.5, capped at 0.95
func Confidence(sig Signals) float64 {
	var dist float64
	dims := sig.Vector.Dimensions()
	for _, d := range dims {
		dist += math.Abs(d - 0.5)
	}
	return math.Min(0.6+0.3*(dist/float64(len(dims))), 0.95)
}

// RuleClassifier is the deterministic strategy. It never fails.
type RuleClassifier struct{}

func (RuleClassifier) Name() string {
	return string(SourceRules)
}

// Classify runs the cascade
func (RuleClassifier) Classify(_ context.Context, sig Signals) (Identity, error) {
	return ClassifyRuleBased(sig), nil
}

// ClassifyRuleBased is the pure form of the rule strategy
func ClassifyRuleBased(sig Signals) Identity {
	r := Match(sig)
	return Identity{
		State:      r.State,
		Confidence: Confidence(sig),
		Reasoning:  fmt.Sprintf("rule %s matched (%s)", r.Name, r.Condition),
		Source:     SourceRules,
		Signals:    sig,
	}
}
