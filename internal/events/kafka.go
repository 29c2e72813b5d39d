package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cedrus/internal/platform/kafka"
)

// KafkaSink publishes events to a Kafka topic, keyed by audit ID so a
// consumer sees each audit's transitions in order.
type KafkaSink struct {
	client *kafka.Client
	topic  string
}

func NewKafkaSink(client *kafka.Client, topic string) *KafkaSink {
	return &KafkaSink{client: client, topic: topic}
}

func (s *KafkaSink) Deliver(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.client.Produce(ctx, s.topic, []byte(event.AuditID.String()), payload)
}
