package insights

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosight/gosight/optimizer/internal/producer"
	"github.com/gosight/gosight/optimizer/internal/storage"
)

// InsightWriter persists insight rows
type InsightWriter interface {
	InsertInsights(ctx context.Context, rows []storage.InsightRow) error
}

// Publisher sends messages to a named outbound topic
type Publisher interface {
	Publish(ctx context.Context, name, projectID string, v interface{}) error
}

// Processor buffers insights for batch insert and publishes each one as an alert
type Processor struct {
	writer    InsightWriter
	publisher Publisher
	batchSize int

	// Buffer for batch inserts
	insightBuffer []storage.InsightRow
	mu            sync.Mutex
	ticker        *time.Ticker
	done          chan struct{}
	stopOnce      sync.Once
}

// NewProcessor creates a processor that flushes every flushInterval or when
// batchSize rows are buffered. Either dependency may be nil.
func NewProcessor(w InsightWriter, pub Publisher, batchSize int, flushInterval time.Duration) *Processor {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	p := &Processor{
		writer:        w,
		publisher:     pub,
		batchSize:     batchSize,
		insightBuffer: make([]storage.InsightRow, 0, batchSize),
		ticker:        time.NewTicker(flushInterval),
		done:          make(chan struct{}),
	}

	// Start flush ticker
	go p.flushLoop()

	return p
}

// Record stores and alerts on every insight of a finished analysis
func (p *Processor) Record(ctx context.Context, a InsightsAnalysis) {
	if !a.Sufficient {
		log.Debug().
			Str("project_id", a.ProjectID).
			Int("events", a.TotalEvents).
			Int("sessions", a.TotalSessions).
			Msg("Skipping analysis with insufficient data")
		return
	}

	for _, in := range a.Insights {
		p.storeInsight(ctx, in)
	}

	log.Info().
		Str("project_id", a.ProjectID).
		Int("patterns", a.PatternsDetected).
		Int("insights", a.TotalInsights).
		Float64("revenue_at_risk", a.TotalRevenueAtRisk).
		Msg("Insights generated")
}

func (p *Processor) storeInsight(ctx context.Context, in Insight) {
	row := toRow(in)

	p.mu.Lock()
	p.insightBuffer = append(p.insightBuffer, row)
	shouldFlush := len(p.insightBuffer) >= p.batchSize
	p.mu.Unlock()

	if shouldFlush {
		p.Flush()
	}

	p.publishAlert(ctx, in, row.InsightID)
}

func toRow(in Insight) storage.InsightRow {
	id, err := uuid.Parse(in.ID)
	if err != nil {
		id = uuid.New()
	}

	details, err := json.Marshal(map[string]interface{}{
		"recommendation":   in.Recommendation,
		"signal":           in.Signal,
		"location":         in.Pattern.Location,
		"linked_problems":  in.Pattern.LinkedProblems,
		"element_texts":    in.Pattern.ElementTexts,
		"pattern_id":       in.Pattern.ID,
		"radius":           in.Pattern.Radius,
		"impact_certainty": in.Impact.Confidence,
	})
	if err != nil {
		log.Error().Err(err).Str("insight_id", in.ID).Msg("Failed to marshal insight details")
		details = []byte("{}")
	}

	return storage.InsightRow{
		InsightID:        id,
		ProjectID:        in.ProjectID,
		InsightType:      string(in.Type),
		Title:            in.Title,
		Summary:          in.Summary,
		Timestamp:        in.GeneratedAt,
		Severity:         string(in.Pattern.Severity),
		CentroidX:        in.Pattern.Centroid.X,
		CentroidY:        in.Pattern.Centroid.Y,
		Zone:             string(in.Pattern.Location.Zone),
		Occurrences:      uint32(in.Pattern.Occurrences),
		SessionsAffected: uint32(in.Pattern.SessionsAffected),
		SessionsPercent:  in.Pattern.SessionsAffectedPercent,
		ConversionLoss:   in.Impact.ConversionLossPercent,
		RevenueLoss:      in.Impact.RevenueLossPerMonth,
		Urgency:          uint8(in.Impact.UrgencyScore),
		Confidence:       in.Impact.Confidence,
		SignalScore:      uint8(in.Signal.Score),
		Action:           in.Recommendation.Action,
		ElementSelectors: in.Pattern.ElementSelectors,
		Details:          string(details),
	}
}

// publishAlert publishes an insight alert for downstream alert processing
func (p *Processor) publishAlert(ctx context.Context, in Insight, insightID uuid.UUID) {
	if p.publisher == nil {
		return
	}

	alert := map[string]interface{}{
		"insight_id":     insightID.String(),
		"type":           in.Type,
		"project_id":     in.ProjectID,
		"title":          in.Title,
		"summary":        in.Summary,
		"severity":       in.Pattern.Severity,
		"urgency":        in.Impact.UrgencyScore,
		"revenue_loss":   in.Impact.RevenueLossPerMonth,
		"action":         in.Recommendation.Action,
		"timestamp":      in.GeneratedAt.UnixMilli(),
		"published_at":   time.Now().UnixMilli(),
		"signal_score":   in.Signal.Score,
		"sessions_pct":   in.Pattern.SessionsAffectedPercent,
		"element_target": in.Pattern.ElementSelectors,
	}
	if in.Recommendation.Relocation != nil {
		alert["relocation"] = in.Recommendation.Relocation
	}

	err := p.publisher.Publish(ctx, producer.TopicAlerts, in.ProjectID, alert)
	if err != nil {
		log.Error().Err(err).Str("type", string(in.Type)).Msg("Failed to publish alert to Kafka")
	} else {
		log.Debug().Str("type", string(in.Type)).Str("project_id", in.ProjectID).Msg("Alert published to Kafka")
	}
}

func (p *Processor) flushLoop() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.Flush()
		}
	}
}

// Flush writes buffered insights to ClickHouse
func (p *Processor) Flush() {
	p.mu.Lock()
	if len(p.insightBuffer) == 0 {
		p.mu.Unlock()
		return
	}

	rows := p.insightBuffer
	p.insightBuffer = make([]storage.InsightRow, 0, p.batchSize)
	p.mu.Unlock()

	if p.writer == nil {
		return
	}

	ctx := context.Background()
	if err := p.writer.InsertInsights(ctx, rows); err != nil {
		log.Error().Err(err).Int("count", len(rows)).Msg("Failed to insert insights")
	} else {
		log.Info().Int("count", len(rows)).Msg("Flushed insights to ClickHouse")
	}
}

// Stop stops the flush loop and writes what is left
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		p.ticker.Stop()
		close(p.done)
		p.Flush()
	})
}
