package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"github.com/gosight/gosight/optimizer/internal/config"
)

type ClickHouse struct {
	conn driver.Conn
}

// InsightRow represents a row in the insights table
type InsightRow struct {
	InsightID        uuid.UUID
	ProjectID        string
	InsightType      string
	Title            string
	Summary          string
	Timestamp        time.Time
	Severity         string
	CentroidX        float64
	CentroidY        float64
	Zone             string
	Occurrences      uint32
	SessionsAffected uint32
	SessionsPercent  float64
	ConversionLoss   float64
	RevenueLoss      float64
	Urgency          uint8
	Confidence       float64
	SignalScore      uint8
	Action           string
	ElementSelectors []string
	Details          string
}

// CycleRow represents a row in the improvement_cycles table. The table is a
// ReplacingMergeTree on cycle_id, so recording an outcome inserts the cycle
// again with the outcome columns set.
type CycleRow struct {
	CycleID            uuid.UUID
	ProjectID          string
	StartedAt          time.Time
	Trigger            string
	IdentityState      string
	IdentityConfidence float64
	IdentitySource     string
	Action             string
	ChangesCount       uint16
	Summary            string
	Approved           *uint8
	Impact             *float64
	OutcomeAt          *time.Time
	Version            uint64
}

func NewClickHouse(cfg config.ClickHouseConfig) (*ClickHouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouse{conn: conn}, nil
}

func (c *ClickHouse) InsertInsights(ctx context.Context, insights []InsightRow) error {
	if len(insights) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO insights (
			insight_id, project_id, insight_type, title, summary, timestamp, severity,
			centroid_x, centroid_y, zone,
			occurrences, sessions_affected, sessions_percent,
			conversion_loss, revenue_loss, urgency, confidence, signal_score,
			action, element_selectors, details
		)
	`)
	if err != nil {
		return err
	}

	for _, i := range insights {
		err := batch.Append(
			i.InsightID, i.ProjectID, i.InsightType, i.Title, i.Summary, i.Timestamp, i.Severity,
			i.CentroidX, i.CentroidY, i.Zone,
			i.Occurrences, i.SessionsAffected, i.SessionsPercent,
			i.ConversionLoss, i.RevenueLoss, i.Urgency, i.Confidence, i.SignalScore,
			i.Action, i.ElementSelectors, i.Details,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

func (c *ClickHouse) InsertCycles(ctx context.Context, cycles []CycleRow) error {
	if len(cycles) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO improvement_cycles (
			cycle_id, project_id, started_at, trigger,
			identity_state, identity_confidence, identity_source,
			action, changes_count, summary,
			approved, impact, outcome_at, version
		)
	`)
	if err != nil {
		return err
	}

	for _, cy := range cycles {
		err := batch.Append(
			cy.CycleID, cy.ProjectID, cy.StartedAt, cy.Trigger,
			cy.IdentityState, cy.IdentityConfidence, cy.IdentitySource,
			cy.Action, cy.ChangesCount, cy.Summary,
			cy.Approved, cy.Impact, cy.OutcomeAt, cy.Version,
		)
		if err != nil {
			return err
		}
	}

	return batch.Send()
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
