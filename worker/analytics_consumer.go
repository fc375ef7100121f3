package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AnalyticsHandler forwards booking lifecycle messages into the analytics
// Kafka topic, keyed by booking id so all events for one booking land in the
// same partition in order.
type AnalyticsHandler struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewAnalyticsHandler(brokers []string, topic string, log *zap.SugaredLogger) *AnalyticsHandler {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &AnalyticsHandler{writer: writer, log: log}
}

func (h *AnalyticsHandler) Handle(ctx context.Context, routingKey string, body []byte) error {
	var envelope struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal booking message: %w", err)
	}

	err := h.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(envelope.ID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(routingKey)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write analytics message: %w", err)
	}

	h.log.Debugw("analytics event forwarded", "routing_key", routingKey, "booking_id", envelope.ID)
	return nil
}

func (h *AnalyticsHandler) Close() error {
	return h.writer.Close()
}
