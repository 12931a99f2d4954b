// Package events publishes workflow events to Kafka for downstream
// consumers. Publishing is strictly fire-and-forget: the review workflow
// never fails because the broker is down.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/docflow/review-service/metrics"
	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Event struct {
	Kind     string    `json:"kind"`
	FileID   string    `json:"file_id"`
	Actor    string    `json:"actor,omitempty"`
	Status   string    `json:"status,omitempty"`
	Version  string    `json:"version,omitempty"`
	Occurred time.Time `json:"occurred_at"`
}

type Publisher struct {
	writer *kafka.Writer
	topic  string
	logger *logrus.Logger
}

// NewPublisher returns nil when no brokers are configured; a nil Publisher
// is safe to call and publishes nothing.
func NewPublisher(brokers []string, topic string, logger *logrus.Logger) *Publisher {
	if len(brokers) == 0 || topic == "" {
		logger.Info("event publishing disabled (missing Kafka config)")
		return nil
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w, topic: topic, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if p == nil {
		return
	}
	if ev.Occurred.IsZero() {
		ev.Occurred = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.WithError(err).Warn("drop event: marshal failed")
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.FileID),
		Value: payload,
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(p.topic, "error").Inc()
		p.logger.WithError(err).WithField("kind", ev.Kind).Warn("event publish failed")
		return
	}
	metrics.EventsPublished.WithLabelValues(p.topic, "ok").Inc()
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
