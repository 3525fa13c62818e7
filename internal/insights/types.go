package insights

import (
	"time"

	"github.com/gosight/gosight/optimizer/internal/impact"
	"github.com/gosight/gosight/optimizer/internal/patterns"
	"github.com/gosight/gosight/optimizer/internal/problems"
	"github.com/gosight/gosight/optimizer/internal/recommend"
	"github.com/gosight/gosight/optimizer/internal/signal"
)

// Insight is a ranked pattern with its cost and the suggested fix
type Insight struct {
	ID             string                   `json:"id"`
	ProjectID      string                   `json:"project_id"`
	Type           patterns.Type            `json:"type"`
	Title          string                   `json:"title"`
	Summary        string                   `json:"summary"`
	Pattern        patterns.Pattern         `json:"pattern"`
	Impact         impact.BusinessImpact    `json:"impact"`
	Recommendation recommend.Recommendation `json:"recommendation"`
	Signal         signal.Strength          `json:"signal"`
	GeneratedAt    time.Time                `json:"generated_at"`
}

// InsightsAnalysis is the result of one analysis run over an event window
type InsightsAnalysis struct {
	ProjectID          string             `json:"project_id"`
	GeneratedAt        time.Time          `json:"generated_at"`
	TotalEvents        int                `json:"total_events"`
	TotalSessions      int                `json:"total_sessions"`
	PatternsDetected   int                `json:"patterns_detected"`
	TotalInsights      int                `json:"total_insights"`
	TotalRevenueAtRisk float64            `json:"total_revenue_at_risk"`
	Sufficient         bool               `json:"sufficient"`
	Summary            string             `json:"summary"`
	Insights           []Insight          `json:"insights"`
	Problems           []problems.Problem `json:"problems"`
}
