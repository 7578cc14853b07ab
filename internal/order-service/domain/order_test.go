package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusPaid, false},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusPaid, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusPending, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}

	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPaid.Terminal())
}

func TestOrder_TransitionAppendsTimeline(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	o := NewOrder("o1", "u1", nil, NewMoney(decimal.NewFromInt(10), "USD"), Address{}, now)
	require.Len(t, o.Timeline, 1)

	later := now.Add(time.Minute)
	require.True(t, o.Transition(StatusCancelled, later))
	assert.Equal(t, StatusCancelled, o.Status)
	require.Len(t, o.Timeline, 2)
	assert.Equal(t, TimelineEntry{Status: StatusCancelled, Date: later}, o.Timeline[1])

	assert.False(t, o.Transition(StatusPending, later))
	assert.Len(t, o.Timeline, 2)
}

func TestOrder_AddressEditable(t *testing.T) {
	o := &Order{Status: StatusPending}
	assert.True(t, o.AddressEditable())

	o.PaymentSummary = &PaymentSummary{Captured: false}
	assert.True(t, o.AddressEditable())

	o.PaymentSummary.Captured = true
	assert.False(t, o.AddressEditable())

	o = &Order{Status: StatusConfirmed}
	assert.False(t, o.AddressEditable())
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("20.50"), "USD")
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":20.5,"currency":"USD"}`, string(b))

	var back Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"3.10","currency":"INR"}`), &back))
	assert.True(t, back.Equal(NewMoney(decimal.RequireFromString("3.1"), "INR")))

	require.NoError(t, json.Unmarshal([]byte(`{"amount":10,"currency":"USD"}`), &back))
	assert.Equal(t, "20 USD", back.Times(2).String())
}

func TestOrder_CloneIsDeep(t *testing.T) {
	o := NewOrder("o1", "u1", []LineItem{{ProductID: "p1", Quantity: 1}}, Money{}, Address{}, time.Now())
	o.PaymentSummary = &PaymentSummary{Method: "card"}

	cp := o.Clone()
	cp.Items[0].Quantity = 9
	cp.Timeline = append(cp.Timeline, TimelineEntry{Status: StatusCancelled})
	cp.PaymentSummary.Captured = true

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Len(t, o.Timeline, 1)
	assert.False(t, o.PaymentSummary.Captured)
}
