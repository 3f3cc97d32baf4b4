// Package kafka publishes order lifecycle events to the interaction layer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
)

// NewWriter builds a kafka writer for the order events topic. Messages are
// keyed by order id, so events of one order always land in one partition and
// keep their order.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		MaxAttempts:  10,
	}
}

// OrderEventPublisher writes order events to Kafka.
type OrderEventPublisher struct {
	writer *kafka.Writer
}

var _ portssvc.OrderEventPublisher = (*OrderEventPublisher)(nil)

// NewOrderEventPublisher creates a publisher on top of an existing writer.
func NewOrderEventPublisher(writer *kafka.Writer) *OrderEventPublisher {
	return &OrderEventPublisher{writer: writer}
}

// PublishOrderEvent marshals the event and writes it keyed by order id.
func (p *OrderEventPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event %s: %w", event.OrderID, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write order event %s to kafka: %w", event.OrderID, err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *OrderEventPublisher) Close() error {
	return p.writer.Close()
}
