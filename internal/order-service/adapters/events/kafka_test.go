package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w)

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	e := app.Event{
		EventID:   "e1",
		Type:      app.EventOrderCancelled,
		OrderID:   "o1",
		OwnerID:   "u1",
		Status:    domain.StatusCancelled,
		Total:     domain.NewMoney(decimal.NewFromInt(20), "USD"),
		CreatedAt: at,
	}
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "o1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, []kafka.Header{{Key: "type", Value: []byte("order.cancelled")}}, msg.Headers)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "order.cancelled", body["type"])
	assert.Equal(t, "cancelled", body["status"])
	assert.Equal(t, map[string]any{"amount": float64(20), "currency": "USD"}, body["total_amount"])
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := NewPublisherWithWriter(&fakeWriter{err: errors.New("leader not available")})
	err := p.Publish(context.Background(), app.Event{Type: app.EventOrderCreated, OrderID: "o1"})
	assert.ErrorContains(t, err, "leader not available")
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}
