package app

import (
	"context"
	"errors"
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/pricing"
)

var (
	// ErrOrderNotFound is returned by a Store when no order has the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrVersionConflict is returned by Store.Update when the stored version
	// no longer matches the one the caller read.
	ErrVersionConflict = errors.New("order version conflict")
)

// CartReader returns the cart of whoever token belongs to.
type CartReader interface {
	GetCart(ctx context.Context, token string) ([]pricing.CartItem, error)
}

type CatalogReader interface {
	GetProduct(ctx context.Context, token, productID string) (pricing.Product, error)
}

// ListFilter selects a page of orders. An empty OwnerID means every owner.
type ListFilter struct {
	OwnerID string
	Offset  int
	Limit   int
}

// Store persists orders. Get and List return copies the caller may modify.
type Store interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	// List returns the requested page ordered by CreatedAt descending, and the
	// total number of orders matching the filter.
	List(ctx context.Context, f ListFilter) ([]*domain.Order, int, error)
	// Update writes o only if the stored version equals o.Version, then
	// increments o.Version.
	Update(ctx context.Context, o *domain.Order) error
}

const (
	EventOrderCreated        = "order.created"
	EventOrderCancelled      = "order.cancelled"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderAddressUpdated = "order.address_updated"
	EventOrderPaymentUpdated = "order.payment_recorded"
)

type Event struct {
	EventID   string             `json:"event_id"`
	Type      string             `json:"type"`
	OrderID   string             `json:"order_id"`
	OwnerID   string             `json:"owner_id"`
	Status    domain.OrderStatus `json:"status"`
	Total     domain.Money       `json:"total_amount"`
	RequestID string             `json:"request_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// EventPublisher announces lifecycle changes to other services.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// Metrics receives one call per published lifecycle event.
type Metrics interface {
	ObserveOrderEvent(eventType string)
}
