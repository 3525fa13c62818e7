package learning

import (
	"fmt"

	"github.com/gosight/gosight/optimizer/internal/fixes"
	"github.com/gosight/gosight/optimizer/internal/identity"
)

// Action is what a cycle does with its mapping
type Action string

const (
	ActionSkipped         Action = "skipped"
	ActionRealtimeVariant Action = "realtime_variant"
	ActionPRApproval      Action = "pr_approval"
)

// AutoApply holds the confidences both the record and the classification
// need before a mapping is applied without review
type AutoApply struct {
	RecordConfidence   float64
	IdentityConfidence float64
}

// DefaultAutoApply returns the standard auto-apply thresholds
func DefaultAutoApply() AutoApply {
	return AutoApply{RecordConfidence: 0.9, IdentityConfidence: 0.8}
}

// Decide picks the action for a mapping. hasRecord is false when the state
// has never received an outcome.
func (a AutoApply) Decide(m fixes.IdentityFixMapping, rec Record, hasRecord bool, id identity.Identity) (Action, string) {
	if len(m.Changes) == 0 {
		return ActionSkipped, fmt.Sprintf("no element changes for %s", id.State)
	}
	if !hasRecord {
		return ActionPRApproval, fmt.Sprintf("no outcome history for %s", id.State)
	}
	if rec.Confidence >= a.RecordConfidence && id.Confidence >= a.IdentityConfidence {
		return ActionRealtimeVariant, fmt.Sprintf("record confidence %.2f and identity confidence %.2f meet auto-apply thresholds",
			rec.Confidence, id.Confidence)
	}
	return ActionPRApproval, fmt.Sprintf("record confidence %.2f (need %.2f), identity confidence %.2f (need %.2f)",
		rec.Confidence, a.RecordConfidence, id.Confidence, a.IdentityConfidence)
}
