package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"restoran-pos/internal/config"
	"restoran-pos/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.sent = append(c.sent, published{exchange, key, msg})
	return c.err
}

func (c *fakeChannel) Close() error { return nil }

func sampleEvent() Event {
	customer := uint(3)
	o := &models.Order{ID: 12, TableID: 4, CustomerID: &customer, Status: models.OrderStatusPending, TotalAmount: 18.5}
	return FromOrder(OrderCreated, o, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestKeys(t *testing.T) {
	e := sampleEvent()
	assert.Equal(t, "order-created-12", e.Key())
	assert.Equal(t, "kitchen.created", e.RoutingKey())
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-created-12", string(w.msgs[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, uint(12), got.OrderID)
	assert.Equal(t, 18.5, got.TotalAmount)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestRabbitMQPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{ch: ch, exchange: "orders_topic"}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "orders_topic", ch.sent[0].exchange)
	assert.Equal(t, "kitchen.created", ch.sent[0].key)
	assert.Equal(t, "application/json", ch.sent[0].msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.sent[0].msg.DeliveryMode)
	require.NoError(t, p.Close())
}

func TestEmitSwallowsErrors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	Emit(context.Background(), &RabbitMQPublisher{ch: ch, exchange: "x"}, sampleEvent())
	assert.Len(t, ch.sent, 1)
	Emit(context.Background(), nil, sampleEvent())
}

func TestNewSelectsBackend(t *testing.T) {
	p, err := New(&config.Config{EventsBackend: config.EventsNone})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	p, err = New(&config.Config{EventsBackend: config.EventsKafka, KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "t"})
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	require.NoError(t, p.Close())

	_, err = New(&config.Config{EventsBackend: "carrier-pigeon"})
	assert.Error(t, err)
}
