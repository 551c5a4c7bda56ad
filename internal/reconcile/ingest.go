package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/trivedidharmik/pinder/internal/platform/kafka"
)

// Ingestor accepts a transition event from a transport edge.
type Ingestor interface {
	Ingest(ctx context.Context, event TransitionEvent) error
}

// KafkaIngestor publishes events to the transition topic so a consumer
// group reconciles them off the request path. Events are keyed by device
// id, keeping one device's transitions ordered within a partition.
type KafkaIngestor struct {
	producer *kafka.Producer
}

func NewKafkaIngestor(producer *kafka.Producer) *KafkaIngestor {
	return &KafkaIngestor{producer: producer}
}

func (i *KafkaIngestor) Ingest(ctx context.Context, event TransitionEvent) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode transition event: %w", err)
	}
	if err := i.producer.Publish(ctx, kafka.TransitionsTopic, []byte(event.DeviceID), payload); err != nil {
		return fmt.Errorf("publish transition event: %w", err)
	}
	return nil
}

// DirectIngestor reconciles inline. Used when no broker is configured.
type DirectIngestor struct {
	reconciler *Reconciler
}

func NewDirectIngestor(reconciler *Reconciler) *DirectIngestor {
	return &DirectIngestor{reconciler: reconciler}
}

func (i *DirectIngestor) Ingest(ctx context.Context, event TransitionEvent) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	return i.reconciler.Process(ctx, event)
}
