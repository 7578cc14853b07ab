// Package storetest holds the behaviour every app.Store implementation must
// share. Each store package runs it from its own tests.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func usd(s string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(s), "USD")
}

// NewOrder builds a two-line pending order created at base plus offset.
func NewOrder(id, owner string, offset time.Duration) *domain.Order {
	items := []domain.LineItem{
		{ProductID: "p1", Title: "Mug", Quantity: 2, UnitPrice: usd("10.50"), LineTotal: usd("21.00")},
		{ProductID: "p2", Quantity: 1, UnitPrice: usd("0.99"), LineTotal: usd("0.99")},
	}
	addr := domain.Address{Street: "1 Main St", City: "Pune", State: "MH", Pincode: "411001", Country: "IN"}
	return domain.NewOrder(id, owner, items, usd("21.99"), addr, base.Add(offset))
}

// Run exercises newStore; every call must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) app.Store) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("UpdateCompareAndSet", func(t *testing.T) { testUpdateCAS(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("ListOwnerAndPaging", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("PaymentSummaryRoundTrip", func(t *testing.T) { testPayment(t, newStore(t)) })
}

func testCreateAndGet(t *testing.T, s app.Store) {
	ctx := context.Background()
	o := NewOrder("o-1", "u1", 0)
	require.NoError(t, s.Create(ctx, o))
	assert.Equal(t, 1, o.Version)

	got, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	AssertSameOrder(t, o, got)

	got.Items[0].Quantity = 99
	again, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func testGetMissing(t *testing.T, s app.Store) {
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, app.ErrOrderNotFound)
}

func testUpdateCAS(t *testing.T, s app.Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, NewOrder("o-1", "u1", 0)))

	first, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	second, err := s.Get(ctx, "o-1")
	require.NoError(t, err)

	require.True(t, first.Transition(domain.StatusCancelled, base.Add(time.Minute)))
	require.NoError(t, s.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.ShippingAddress.City = "Mumbai"
	assert.ErrorIs(t, s.Update(ctx, second), app.ErrVersionConflict)

	got, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, "Pune", got.ShippingAddress.City)
	require.Len(t, got.Timeline, 2)
	assert.Equal(t, domain.StatusCancelled, got.Timeline[1].Status)
	assert.True(t, got.Timeline[1].Date.Equal(base.Add(time.Minute)))
	assert.Equal(t, 2, got.Version)
}

func testUpdateMissing(t *testing.T, s app.Store) {
	o := NewOrder("ghost", "u1", 0)
	o.Version = 1
	assert.ErrorIs(t, s.Update(context.Background(), o), app.ErrOrderNotFound)
}

func testList(t *testing.T, s app.Store) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Create(ctx, NewOrder(fmt.Sprintf("a-%d", i), "alice", time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Create(ctx, NewOrder(fmt.Sprintf("b-%d", i), "bob", time.Duration(i)*time.Hour)))
	}

	page, total, err := s.List(ctx, app.ListFilter{OwnerID: "alice", Offset: 0, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"a-4", "a-3"}, ids(page))

	page, total, err = s.List(ctx, app.ListFilter{OwnerID: "alice", Offset: 4, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"a-0"}, ids(page))

	page, total, err = s.List(ctx, app.ListFilter{OwnerID: "alice", Offset: 10, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)

	page, total, err = s.List(ctx, app.ListFilter{Offset: 0, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 8, total)
	assert.Equal(t, []string{"b-2", "b-1", "a-4"}, ids(page))

	page, total, err = s.List(ctx, app.ListFilter{OwnerID: "carol", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, page)
}

func testPayment(t *testing.T, s app.Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, NewOrder("o-1", "u1", 0)))

	o, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Nil(t, o.PaymentSummary)

	o.PaymentSummary = &domain.PaymentSummary{Method: "card", Captured: true, Amount: usd("21.99")}
	require.True(t, o.Transition(domain.StatusConfirmed, base.Add(time.Minute)))
	require.True(t, o.Transition(domain.StatusPaid, base.Add(time.Hour)))
	require.NoError(t, s.Update(ctx, o))

	got, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, got.PaymentSummary)
	assert.Equal(t, "card", got.PaymentSummary.Method)
	assert.True(t, got.PaymentSummary.Captured)
	assert.True(t, got.PaymentSummary.Amount.Equal(usd("21.99")))
	assert.Equal(t, domain.StatusPaid, got.Status)
}

// AssertSameOrder compares two orders field by field, using value equality
// for amounts and instants.
func AssertSameOrder(t *testing.T, want, got *domain.Order) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.OwnerID, got.OwnerID)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.ShippingAddress, got.ShippingAddress)
	assert.Equal(t, want.Version, got.Version)
	assert.True(t, want.TotalAmount.Equal(got.TotalAmount), "total %s != %s", want.TotalAmount, got.TotalAmount)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))

	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		w, g := want.Items[i], got.Items[i]
		assert.Equal(t, w.ProductID, g.ProductID)
		assert.Equal(t, w.Title, g.Title)
		assert.Equal(t, w.Quantity, g.Quantity)
		assert.True(t, w.UnitPrice.Equal(g.UnitPrice))
		assert.True(t, w.LineTotal.Equal(g.LineTotal))
	}

	require.Len(t, got.Timeline, len(want.Timeline))
	for i := range want.Timeline {
		assert.Equal(t, want.Timeline[i].Status, got.Timeline[i].Status)
		assert.True(t, want.Timeline[i].Date.Equal(got.Timeline[i].Date))
	}
}

func ids(orders []*domain.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}
