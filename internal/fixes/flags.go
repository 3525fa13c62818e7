// Package fixes maps a shopper identity to concrete storefront element changes.
package fixes

import (
	"github.com/gosight/gosight/optimizer/internal/identity"
)

// Flag is one active UI recommendation
type Flag string

const (
	FlagSimplifyLayout    Flag = "simplify_layout"
	FlagShowHelp          Flag = "show_help"
	FlagTrustSignals      Flag = "trust_signals"
	FlagHighlightCTA      Flag = "highlight_cta"
	FlagExpressCheckout   Flag = "express_checkout"
	FlagComparisonTools   Flag = "comparison_tools"
	FlagReduceChoices     Flag = "reduce_choices"
	FlagUrgencyCues       Flag = "urgency_cues"
	FlagProgressIndicator Flag = "progress_indicator"
	FlagDiscoveryFeed     Flag = "discovery_feed"
)

// Density is how much product detail the page should show
type Density string

const (
	DensityMinimal  Density = "minimal"
	DensityStandard Density = "standard"
	DensityDetailed Density = "detailed"
)

// densityFlags turns the non-standard densities into matchable flags
var densityFlags = map[Density]Flag{
	DensityMinimal:  "info_density:minimal",
	DensityDetailed: "info_density:detailed",
}

// UIRecommendations is the fixed set of switches derived from a state
type UIRecommendations struct {
	SimplifyLayout    bool    `json:"simplify_layout"`
	ShowHelp          bool    `json:"show_help"`
	TrustSignals      bool    `json:"trust_signals"`
	HighlightCTA      bool    `json:"highlight_cta"`
	ExpressCheckout   bool    `json:"express_checkout"`
	ComparisonTools   bool    `json:"comparison_tools"`
	ReduceChoices     bool    `json:"reduce_choices"`
	UrgencyCues       bool    `json:"urgency_cues"`
	ProgressIndicator bool    `json:"progress_indicator"`
	DiscoveryFeed     bool    `json:"discovery_feed"`
	InfoDensity       Density `json:"info_density"`
}

// Active lists the flags that are switched on, in declaration order
func (u UIRecommendations) Active() []Flag {
	var out []Flag
	for _, f := range []struct {
		on   bool
		flag Flag
	}{
		{u.SimplifyLayout, FlagSimplifyLayout},
		{u.ShowHelp, FlagShowHelp},
		{u.TrustSignals, FlagTrustSignals},
		{u.HighlightCTA, FlagHighlightCTA},
		{u.ExpressCheckout, FlagExpressCheckout},
		{u.ComparisonTools, FlagComparisonTools},
		{u.ReduceChoices, FlagReduceChoices},
		{u.UrgencyCues, FlagUrgencyCues},
		{u.ProgressIndicator, FlagProgressIndicator},
		{u.DiscoveryFeed, FlagDiscoveryFeed},
	} {
		if f.on {
			out = append(out, f.flag)
		}
	}
	if f, ok := densityFlags[u.InfoDensity]; ok {
		out = append(out, f)
	}
	return out
}

var uiByState = map[identity.State]UIRecommendations{
	identity.StateFrustrated: {
		SimplifyLayout: true,
		ShowHelp:       true,
		HighlightCTA:   true,
		InfoDensity:    DensityMinimal,
	},
	identity.StateOverwhelmed: {
		SimplifyLayout:    true,
		ReduceChoices:     true,
		ProgressIndicator: true,
		InfoDensity:       DensityMinimal,
	},
	identity.StateConfident: {
		ExpressCheckout: true,
		HighlightCTA:    true,
		InfoDensity:     DensityStandard,
	},
	identity.StateReadyToDecide: {
		ExpressCheckout: true,
		TrustSignals:    true,
		UrgencyCues:     true,
		InfoDensity:     DensityStandard,
	},
	identity.StateComparisonFocused: {
		ComparisonTools: true,
		InfoDensity:     DensityDetailed,
	},
	identity.StateImpulseBuyer: {
		ExpressCheckout: true,
		UrgencyCues:     true,
		HighlightCTA:    true,
		InfoDensity:     DensityMinimal,
	},
	identity.StateCautious: {
		TrustSignals: true,
		ShowHelp:     true,
		InfoDensity:  DensityDetailed,
	},
	identity.StateExploratory: {
		DiscoveryFeed: true,
		InfoDensity:   DensityStandard,
	},
}

// UIFor returns the UI recommendations for a state. Unknown states get none.
func UIFor(s identity.State) UIRecommendations {
	return uiByState[s]
}
