// Package impact turns a pattern into an estimate of lost conversions and revenue.
package impact

import (
	"math"

	"github.com/gosight/gosight/optimizer/internal/patterns"
	"github.com/gosight/gosight/optimizer/internal/problems"
)

// BusinessConfig describes the storefront the estimates are scaled to
type BusinessConfig struct {
	AverageOrderValue     float64 `yaml:"average_order_value" json:"average_order_value"`
	MonthlyVisitors       float64 `yaml:"monthly_visitors" json:"monthly_visitors"`
	CurrentConversionRate float64 `yaml:"current_conversion_rate" json:"current_conversion_rate"`
}

// BusinessImpact is the estimated cost of leaving a pattern unfixed
type BusinessImpact struct {
	ConversionLossPercent float64 `json:"conversion_loss_percent"`
	RevenueLossPerMonth   float64 `json:"revenue_loss_per_month"`
	UrgencyScore          int     `json:"urgency_score"`
	Confidence            float64 `json:"confidence"`
}

// MaxConversionLoss caps any single pattern's estimated loss, in percent
const MaxConversionLoss = 50.0

const defaultBaseLoss = 5.0

var baseLossByPatternType = map[patterns.Type]float64{
	patterns.TypeRageCluster:       8,
	patterns.TypeDeadClickHotspot:  5,
	patterns.TypeScrollAbandonment: 10,
	patterns.TypeElementConfusion:  6,
	patterns.TypePriceAnxiety:      7,
	patterns.TypeCTAInvisibility:   12,
}

var zoneMultiplier = map[patterns.Zone]float64{
	patterns.ZoneAboveFold: 1.5,
	patterns.ZoneMidPage:   1.0,
	patterns.ZoneBelowFold: 0.7,
	patterns.ZoneFooter:    0.4,
}

var severityBase = map[problems.Severity]int{
	problems.SeverityCritical: 80,
	problems.SeverityHigh:     60,
	problems.SeverityMedium:   40,
	problems.SeverityLow:      20,
}

// tier is one step of a threshold table; tables are ordered high to low
type tier struct {
	min   float64
	value float64
}

var coverageTiers = []tier{{80, 1.5}, {50, 1.2}, {25, 1.0}, {10, 0.8}}

const coverageFloor = 0.5

var (
	eventCountBonus   = []tier{{20, 0.2}, {10, 0.15}, {5, 0.1}}
	sessionCountBonus = []tier{{10, 0.2}, {5, 0.15}, {3, 0.1}}
)

func lookup(tiers []tier, v, fallback float64) float64 {
	for _, t := range tiers {
		if v >= t.min {
			return t.value
		}
	}
	return fallback
}

// BaseLoss is the conversion loss a pattern type causes before scaling
func BaseLoss(t patterns.Type) float64 {
	if v, ok := baseLossByPatternType[t]; ok {
		return v
	}
	return defaultBaseLoss
}

// LocationMultiplier scales loss by how visible the pattern is. Patterns
// without a known location are neutral.
func LocationMultiplier(loc patterns.Location) float64 {
	if !loc.Known {
		return 1.0
	}
	if m, ok := zoneMultiplier[loc.Zone]; ok {
		return m
	}
	return 1.0
}

// CoverageMultiplier scales loss by the share of sessions affected
func CoverageMultiplier(sessionsPercent float64) float64 {
	return lookup(coverageTiers, sessionsPercent, coverageFloor)
}

// ConversionLoss estimates the percentage of conversions lost to p
func ConversionLoss(p patterns.Pattern) float64 {
	loss := BaseLoss(p.Type) * LocationMultiplier(p.Location) * CoverageMultiplier(p.SessionsAffectedPercent)
	return math.Min(loss, MaxConversionLoss)
}

// RevenueLoss converts a conversion loss percentage to monthly revenue.
// Negative inputs count as zero so the result never decreases with loss.
func RevenueLoss(conversionLoss float64, cfg BusinessConfig) float64 {
	if conversionLoss <= 0 || math.IsNaN(conversionLoss) {
		return 0
	}
	visitors := math.Max(cfg.MonthlyVisitors, 0)
	rate := math.Max(cfg.CurrentConversionRate, 0)
	aov := math.Max(cfg.AverageOrderValue, 0)
	return math.Round(visitors * rate / 100 * aov * conversionLoss / 100)
}

// Urgency ranks how soon p should be fixed, 0 to 100
func Urgency(p patterns.Pattern, conversionLoss float64) int {
	score, ok := severityBase[p.Severity]
	if !ok {
		score = severityBase[problems.SeverityMedium]
	}

	switch {
	case p.SessionsAffectedPercent >= 50:
		score += 15
	case p.SessionsAffectedPercent >= 25:
		score += 8
	}
	if p.Location.AboveFold() {
		score += 10
	}
	switch {
	case conversionLoss >= 20:
		score += 10
	case conversionLoss >= 10:
		score += 5
	}

	return clampInt(score, 0, 100)
}

// Confidence reflects how much evidence backs the estimate, 0 to 1
func Confidence(p patterns.Pattern) float64 {
	c := 0.5
	c += lookup(eventCountBonus, float64(p.Occurrences), 0)
	c += lookup(sessionCountBonus, float64(p.SessionsAffected), 0)
	if p.Location.Known {
		c += 0.1
	}
	return clamp(c, 0, 1)
}

// Calculate derives the full impact of p
func Calculate(p patterns.Pattern, cfg BusinessConfig) BusinessImpact {
	loss := ConversionLoss(p)
	return BusinessImpact{
		ConversionLossPercent: loss,
		RevenueLossPerMonth:   RevenueLoss(loss, cfg),
		UrgencyScore:          Urgency(p, loss),
		Confidence:            Confidence(p),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
