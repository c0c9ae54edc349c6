// Package events publishes order lifecycle events to a message broker.
package events

import (
	"context"
	"fmt"
	"time"

	"restoran-pos/internal/config"
	"restoran-pos/internal/models"

	"github.com/rs/zerolog/log"
)

type Type string

const (
	OrderCreated       Type = "created"
	OrderStatusChanged Type = "status_changed"
	OrderDeleted       Type = "deleted"
)

type Event struct {
	Type        Type               `json:"type"`
	OrderID     uint               `json:"orderId"`
	TableID     uint               `json:"tableId"`
	CustomerID  *uint              `json:"customerId,omitempty"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount float64            `json:"totalAmount"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

func FromOrder(t Type, o *models.Order, at time.Time) Event {
	return Event{
		Type:        t,
		OrderID:     o.ID,
		TableID:     o.TableID,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  at.UTC(),
	}
}

// Key partitions events by order, e.g. "order-created-12".
func (e Event) Key() string {
	return fmt.Sprintf("order-%s-%d", e.Type, e.OrderID)
}

// RoutingKey is the topic routing key, e.g. "kitchen.created".
func (e Event) RoutingKey() string {
	return "kitchen." + string(e.Type)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                          { return nil }

// New builds the publisher selected by EVENTS_BACKEND.
func New(cfg *config.Config) (Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsRabbitMQ:
		p, err := DialRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.EventsNone, "":
		return Noop{}, nil
	}
	return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
}

// Emit publishes e, logging a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Warn().Err(err).
			Str("event", string(e.Type)).
			Uint("order_id", e.OrderID).
			Msg("order event not published")
	}
}
