package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/gosight/gosight/optimizer/internal/config"
	"github.com/gosight/gosight/optimizer/internal/transformer"
)

const defaultEventsTopic = "gosight.events.raw"

// MessageProcessor handles one decoded event at a time
type MessageProcessor interface {
	Process(ctx context.Context, event map[string]interface{}) error
	Flush()
}

// messageReader is the part of kafka.Reader the consumer needs
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Stats counts what the consumer has seen
type Stats struct {
	Processed uint64 `json:"processed"`
	Rejected  uint64 `json:"rejected"`
	Failed    uint64 `json:"failed"`
}

// KafkaConsumer feeds raw tracker events into a MessageProcessor
type KafkaConsumer struct {
	reader    messageReader
	topic     string
	group     string
	processor MessageProcessor

	processed atomic.Uint64
	rejected  atomic.Uint64
	failed    atomic.Uint64
}

// NewKafkaConsumer creates a consumer on the events topic
func NewKafkaConsumer(cfg config.KafkaConfig, processor MessageProcessor) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}

	topic := cfg.Topics["events"]
	if topic == "" {
		topic = defaultEventsTopic
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1000,
		StartOffset:    kafka.LastOffset,
	})

	return newConsumer(reader, topic, cfg.ConsumerGroup, processor), nil
}

func newConsumer(r messageReader, topic, group string, processor MessageProcessor) *KafkaConsumer {
	return &KafkaConsumer{
		reader:    r,
		topic:     topic,
		group:     group,
		processor: processor,
	}
}

// Start consumes until ctx is done. It always returns nil so a cancelled
// context reads as a clean shutdown.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("topic", c.topic).
		Str("group", c.group).
		Msg("Starting Kafka consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("Kafka consumer stopped")
				return nil
			}
			log.Error().Err(err).Msg("Failed to fetch message")
			continue
		}

		c.handle(ctx, msg)

		// Commit even on failure so a poison message cannot stall the partition
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to commit message")
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message) {
	var event map[string]interface{}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.rejected.Add(1)
		log.Error().
			Err(err).
			Str("value", string(msg.Value)).
			Msg("Failed to parse message")
		return
	}

	err := c.processor.Process(ctx, event)
	switch {
	case err == nil:
		c.processed.Add(1)
	case errors.Is(err, transformer.ErrMissingType), errors.Is(err, transformer.ErrMissingSession):
		c.rejected.Add(1)
		log.Debug().Err(err).Int64("offset", msg.Offset).Msg("Rejected event")
	default:
		c.failed.Add(1)
		log.Error().
			Err(err).
			Interface("event", event).
			Msg("Failed to process event")
	}
}

// Stats returns the message counters
func (c *KafkaConsumer) Stats() Stats {
	return Stats{
		Processed: c.processed.Load(),
		Rejected:  c.rejected.Load(),
		Failed:    c.failed.Load(),
	}
}

// Close flushes the processor and closes the reader
func (c *KafkaConsumer) Close() error {
	log.Info().Msg("Closing Kafka consumer")
	c.processor.Flush()
	return c.reader.Close()
}
