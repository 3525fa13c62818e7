package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/gosight/gosight/optimizer/internal/config"
)

// Topic names as they appear under kafka.topics in the config
const (
	TopicAlerts = "alerts"
	TopicFixes  = "fixes"
)

// KafkaProducer owns one async writer per outbound topic
type KafkaProducer struct {
	writers map[string]*kafka.Writer
}

func NewKafkaProducer(cfg config.KafkaConfig) *KafkaProducer {
	writers := make(map[string]*kafka.Writer)
	if len(cfg.Brokers) == 0 {
		return &KafkaProducer{writers: writers}
	}

	for _, name := range []string{TopicAlerts, TopicFixes} {
		topic, ok := cfg.Topics[name]
		if !ok || topic == "" {
			continue
		}
		writers[name] = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchSize:              1,
			BatchTimeout:           time.Millisecond * 10,
			Async:                  true,
			AllowAutoTopicCreation: true,
		}
		log.Info().Str("topic", topic).Str("name", name).Msg("Kafka writer initialized")
	}

	return &KafkaProducer{writers: writers}
}

// Enabled reports whether a writer exists for the named topic
func (p *KafkaProducer) Enabled(name string) bool {
	_, ok := p.writers[name]
	return ok
}

// Publish marshals v as JSON and writes it to the named topic, keyed by
// project. Unconfigured topics are skipped silently.
func (p *KafkaProducer) Publish(ctx context.Context, name, projectID string, v interface{}) error {
	w, ok := p.writers[name]
	if !ok {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", name, err)
	}

	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(projectID),
		Value: data,
	})
}

func (p *KafkaProducer) Close() error {
	for name, w := range p.writers {
		if err := w.Close(); err != nil {
			log.Error().Err(err).Str("name", name).Msg("Failed to close Kafka writer")
		}
	}
	return nil
}
