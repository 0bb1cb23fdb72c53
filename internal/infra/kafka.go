package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/pipeline"
)

// Topics for downstream consumers (notification fan-out, CLV dashboards).
const (
	TopicPickEmitted  = "pickline.pick.emitted"
	TopicRunCompleted = "pickline.run.completed"
)

// KafkaProducer wraps a kafka-go writer for publishing messages.
type KafkaProducer struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	enabled bool
}

// NewKafkaProducer creates a Kafka producer. If brokers is empty or disabled, writes are no-ops.
func NewKafkaProducer(brokers string, enabled bool, logger *slog.Logger) *KafkaProducer {
	if !enabled || brokers == "" {
		logger.Info("kafka producer disabled")
		return &KafkaProducer{enabled: false, logger: logger}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("kafka producer initialized", "brokers", brokers)
	return &KafkaProducer{writer: w, logger: logger, enabled: true}
}

// Publish sends a message to the given topic. No-op if disabled.
func (p *KafkaProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if !p.enabled {
		return nil
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

// Close shuts down the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// PipelineEvents publishes post-commit pipeline events to Kafka. It
// satisfies pipeline.Publisher; the engine only calls it after the run
// transaction committed.
type PipelineEvents struct {
	producer *KafkaProducer
}

// NewPipelineEvents wraps a producer as the pipeline event sink.
func NewPipelineEvents(producer *KafkaProducer) *PipelineEvents {
	return &PipelineEvents{producer: producer}
}

// PublishPickEmitted announces a newly emitted pick, keyed by its
// lifecycle id.
func (e *PipelineEvents) PublishPickEmitted(ctx context.Context, pick domain.Pick) error {
	value, err := json.Marshal(pick)
	if err != nil {
		return fmt.Errorf("marshal pick %d: %w", pick.ID, err)
	}
	return e.producer.Publish(ctx, TopicPickEmitted, []byte(pick.PickLifecycleID), value)
}

// PublishRunCompleted announces a committed sweep, keyed by run id.
func (e *PipelineEvents) PublishRunCompleted(ctx context.Context, summary pipeline.RunSummary) error {
	value, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal run summary %d: %w", summary.RunID, err)
	}
	return e.producer.Publish(ctx, TopicRunCompleted, []byte(fmt.Sprint(summary.RunID)), value)
}
