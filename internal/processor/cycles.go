package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosight/gosight/optimizer/internal/fixes"
	"github.com/gosight/gosight/optimizer/internal/identity"
	"github.com/gosight/gosight/optimizer/internal/learning"
	"github.com/gosight/gosight/optimizer/internal/producer"
	"github.com/gosight/gosight/optimizer/internal/storage"
)

// CycleWriter persists improvement cycle rows
type CycleWriter interface {
	InsertCycles(ctx context.Context, rows []storage.CycleRow) error
}

// Publisher sends messages to a named outbound topic
type Publisher interface {
	Publish(ctx context.Context, name, projectID string, v interface{}) error
}

// FixMessage is published on the fixes topic for every actionable cycle
type FixMessage struct {
	CycleID   string                   `json:"cycle_id"`
	ProjectID string                   `json:"project_id"`
	State     identity.State           `json:"identity_state"`
	Action    learning.Action          `json:"action"`
	Reason    string                   `json:"reason"`
	Mapping   fixes.IdentityFixMapping `json:"mapping"`
	CreatedAt time.Time                `json:"created_at"`
}

// CycleSink stores cycles in ClickHouse and publishes new actionable ones.
// Either dependency may be nil.
type CycleSink struct {
	writer    CycleWriter
	publisher Publisher
}

func NewCycleSink(w CycleWriter, pub Publisher) *CycleSink {
	return &CycleSink{writer: w, publisher: pub}
}

// SaveCycle implements learning.CycleSink
func (s *CycleSink) SaveCycle(ctx context.Context, c learning.Cycle) error {
	if s.writer != nil {
		row, err := cycleRow(c)
		if err != nil {
			return err
		}
		if err := s.writer.InsertCycles(ctx, []storage.CycleRow{row}); err != nil {
			return fmt.Errorf("insert cycle: %w", err)
		}
	}

	// outcome updates are stored but not re-published
	if c.Outcome != nil || c.Action == learning.ActionSkipped || s.publisher == nil {
		return nil
	}

	msg := FixMessage{
		CycleID:   c.ID,
		ProjectID: c.ProjectID,
		State:     c.Identity.State,
		Action:    c.Action,
		Reason:    c.Reason,
		Mapping:   c.Mapping,
		CreatedAt: c.StartedAt,
	}
	if err := s.publisher.Publish(ctx, producer.TopicFixes, c.ProjectID, msg); err != nil {
		log.Warn().Err(err).Str("cycle_id", c.ID).Msg("Failed to publish fix mapping")
	}
	return nil
}

// cycleRow flattens a cycle. The version grows with each update so the
// ReplacingMergeTree keeps the row carrying the outcome.
func cycleRow(c learning.Cycle) (storage.CycleRow, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return storage.CycleRow{}, fmt.Errorf("parse cycle id %q: %w", c.ID, err)
	}

	row := storage.CycleRow{
		CycleID:            id,
		ProjectID:          c.ProjectID,
		StartedAt:          c.StartedAt,
		Trigger:            c.Trigger.Reason,
		IdentityState:      string(c.Identity.State),
		IdentityConfidence: c.Identity.Confidence,
		IdentitySource:     string(c.Identity.Source),
		Action:             string(c.Action),
		ChangesCount:       uint16(len(c.Mapping.Changes)),
		Summary:            c.Mapping.Summary,
		Version:            uint64(c.StartedAt.UnixMilli()),
	}

	if o := c.Outcome; o != nil {
		var approved uint8
		if o.Approved {
			approved = 1
		}
		impact := o.Impact
		at := o.RecordedAt
		row.Approved = &approved
		row.Impact = &impact
		row.OutcomeAt = &at
		row.Version = uint64(at.UnixMilli())
		if row.Version <= uint64(c.StartedAt.UnixMilli()) {
			row.Version = uint64(c.StartedAt.UnixMilli()) + 1
		}
	}

	return row, nil
}
