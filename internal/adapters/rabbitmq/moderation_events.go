package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/contracts"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 10 * time.Second

// MessagePublisher - то, что нужно адаптеру от Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

type moderationEventMessage struct {
	Action     string    `json:"action"`
	Succeeded  []int     `json:"succeeded"`
	Failed     []int     `json:"failed"`
	Skipped    []int     `json:"skipped"`
	Reason     string    `json:"reason,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ModerationEventPublisher - реализация ModerationEventsPort для RabbitMQ.
// Routing key: "<prefix>.<action>", например "moderation.reject".
type ModerationEventPublisher struct {
	producer MessagePublisher
	prefix   string
}

var _ port.ModerationEventsPort = (*ModerationEventPublisher)(nil)

func NewModerationEventPublisher(producer MessagePublisher, routingPrefix string) (*ModerationEventPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingPrefix == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routing prefix cannot be empty")
	}
	return &ModerationEventPublisher{producer: producer, prefix: routingPrefix}, nil
}

func (a *ModerationEventPublisher) PublishModerationEvent(ctx context.Context, event domain.ModerationEvent) error {
	routingKey := a.prefix + "." + string(event.Action)
	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "ModerationEventPublisher",
		"routing_key": routingKey,
	})

	body, err := json.Marshal(moderationEventMessage{
		Action:     string(event.Action),
		Succeeded:  nonNil(event.Succeeded),
		Failed:     nonNil(event.Failed),
		Skipped:    nonNil(event.Skipped),
		Reason:     event.Reason,
		Comment:    event.Comment,
		OccurredAt: event.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal moderation event: %w", err)
	}
	if err := contracts.Validate(contracts.ModerationEvent, contracts.CurrentVersion, body); err != nil {
		adapterLogger.Error("Moderation event violates its contract", err, nil)
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         contracts.ModerationEvent,
		Headers: amqp.Table{
			"x-event-type":    contracts.ModerationEvent,
			"x-event-version": contracts.CurrentVersion,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish moderation event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish moderation event: %w", err)
	}

	adapterLogger.Debug("Moderation event published", port.Fields{
		"succeeded": len(event.Succeeded),
		"failed":    len(event.Failed),
	})
	return nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
