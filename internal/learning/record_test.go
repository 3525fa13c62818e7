package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gosight/gosight/optimizer/internal/identity"
)

var t0 = time.UnixMilli(1_700_000_000_000)

func TestApplyOutcome_ConsecutiveApprovals(t *testing.T) {
	r := NewRecord(identity.StateCautious)
	assert.Equal(t, 0.5, r.Confidence)

	want := []float64{0.696, 0.7632, 0.81024}
	prev := r.Confidence
	for i, w := range want {
		r = r.ApplyOutcome(true, 40, t0.Add(time.Duration(i)*time.Minute))
		assert.InDelta(t, w, r.Confidence, 1e-9, "after approval %d", i+1)
		assert.Greater(t, r.Confidence, prev)
		prev = r.Confidence
	}
	assert.Equal(t, 3, r.TimesApplied)
	assert.Equal(t, 3, r.TimesApproved)
	assert.Equal(t, t0.Add(2*time.Minute), r.LastApplied)

	for i := 0; i < 200; i++ {
		r = r.ApplyOutcome(true, 40, t0)
	}
	assert.InDelta(t, 0.92, r.Confidence, 1e-6)
}

func TestApplyOutcome_Rejection(t *testing.T) {
	r := NewRecord(identity.StateFrustrated).
		ApplyOutcome(true, 40, t0).
		ApplyOutcome(false, 999, t0)

	assert.Equal(t, 2, r.TimesApplied)
	assert.Equal(t, 1, r.TimesRejected)
	// rejection leaves the impact average alone
	assert.InDelta(t, 12.0, r.AvgImpact, 1e-9)
	assert.InDelta(t, 0.5*0.6+12.0/50*0.4, r.Confidence, 1e-9)
}

func TestApplyOutcome_Bounds(t *testing.T) {
	r := NewRecord(identity.StateFrustrated)
	for i := 0; i < 50; i++ {
		r = r.ApplyOutcome(true, 10_000, t0)
	}
	assert.LessOrEqual(t, r.Confidence, 1.0)

	r = NewRecord(identity.StateFrustrated).ApplyOutcome(true, -500, t0)
	assert.GreaterOrEqual(t, r.Confidence, 0.0)
	assert.InDelta(t, 0.6, r.Confidence, 1e-9)

	r = NewRecord(identity.StateFrustrated).ApplyOutcome(false, 0, t0)
	assert.Equal(t, 0.0, r.Confidence)
}
