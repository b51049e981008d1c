package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"relieflink/internal/platform/kafka/producer"
)

// KafkaSink appends audit events to a Kafka topic. Records are keyed by
// family commitment so one family's trail stays ordered within a partition.
type KafkaSink struct {
	producer *producer.Producer
	topic    string
}

// NewKafkaSink builds a Store backed by the given producer.
func NewKafkaSink(p *producer.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	msg := &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.FamilyCommitment),
		Value: payload,
		Headers: map[string]string{
			"action": event.Action,
		},
	}

	if err := s.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

var _ Store = (*KafkaSink)(nil)
var _ Store = (*InMemoryStore)(nil)
