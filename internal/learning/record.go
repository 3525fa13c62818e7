// Package learning decides whether to auto-apply or request approval for a
// fix, and learns from the answers.
package learning

import (
	"math"
	"time"

	"github.com/gosight/gosight/optimizer/internal/identity"
)

const (
	// InitialConfidence is the confidence of a state with no outcomes yet
	InitialConfidence = 0.5

	impactDecay      = 0.7
	impactWeight     = 0.3
	approvalWeight   = 0.6
	impactShare      = 0.4
	impactSaturation = 50.0
)

// Record accumulates approval outcomes for one identity state
type Record struct {
	State         identity.State `json:"state"`
	TimesApplied  int            `json:"times_applied"`
	TimesApproved int            `json:"times_approved"`
	TimesRejected int            `json:"times_rejected"`
	AvgImpact     float64        `json:"avg_impact"`
	Confidence    float64        `json:"confidence"`
	LastApplied   time.Time      `json:"last_applied"`
}

// NewRecord returns the starting record for a state
func NewRecord(s identity.State) Record {
	return Record{State: s, Confidence: InitialConfidence}
}

// ApplyOutcome returns r updated with one human decision
func (r Record) ApplyOutcome(approved bool, impact float64, at time.Time) Record {
	r.TimesApplied++
	if approved {
		r.TimesApproved++
		r.AvgImpact = r.AvgImpact*impactDecay + impact*impactWeight
	} else {
		r.TimesRejected++
	}
	r.LastApplied = at

	approvalRate := float64(r.TimesApproved) / float64(r.TimesApplied)
	r.Confidence = approvalRate*approvalWeight + clamp01(r.AvgImpact/impactSaturation)*impactShare
	return r
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(v, 1))
}
