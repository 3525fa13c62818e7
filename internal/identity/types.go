// Package identity classifies a behavioral vector into a shopper intent state.
package identity

import (
	"context"
	"errors"

	"github.com/gosight/gosight/optimizer/internal/behavior"
)

// State is one of the eight intent archetypes
type State string

const (
	StateFrustrated        State = "frustrated"
	StateOverwhelmed       State = "overwhelmed"
	StateConfident         State = "confident"
	StateReadyToDecide     State = "ready_to_decide"
	StateComparisonFocused State = "comparison_focused"
	StateImpulseBuyer      State = "impulse_buyer"
	StateCautious          State = "cautious"
	StateExploratory       State = "exploratory"
)

// States lists every valid state
var States = []State{
	StateFrustrated,
	StateOverwhelmed,
	StateConfident,
	StateReadyToDecide,
	StateComparisonFocused,
	StateImpulseBuyer,
	StateCautious,
	StateExploratory,
}

// Valid reports whether s is one of the eight known states
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Source records which strategy produced a classification
type Source string

const (
	SourceRules  Source = "rules"
	SourceRemote Source = "remote"
)

// Signals is the classifier input
type Signals struct {
	Vector      behavior.Vector `json:"vector"`
	Frustration float64         `json:"frustration"`
}

// Identity is a classification result. It is not modified after creation.
type Identity struct {
	State      State   `json:"state"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Source     Source  `json:"source"`
	Cached     bool    `json:"cached"`
	Signals    Signals `json:"signals"`
}

var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrInvalidResponse       = errors.New("invalid classifier response")
)

// Classifier is a single classification strategy
type Classifier interface {
	Classify(ctx context.Context, sig Signals) (Identity, error)
	Name() string
}
