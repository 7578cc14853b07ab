package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jcmexdev/ecommerce-orders/internal/coordinator"
	"github.com/jcmexdev/ecommerce-orders/internal/coordinator/sagalog"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/pricing"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/apperr"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/auth"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/constants"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 10
	MaxLimit        = 100
	maxUpdateTries  = 3
	idempotencyOp   = "create-order"
	claimInProgress = "in-progress"
)

// Service is the order lifecycle orchestrator.
type Service struct {
	cart    CartReader
	catalog CatalogReader
	store   Store

	events      EventPublisher
	metrics     Metrics
	idempotency cache.Cache
	idemTTL     time.Duration
	claimTTL    time.Duration
	publishTTL  time.Duration
	sagaLog     sagalog.Repository
	concurrency int

	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithPublishTimeout caps how long an operation waits on the event publisher
// after the order has been stored.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) { s.publishTTL = d }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithIdempotency enables Idempotency-Key handling on CreateOrder.
func WithIdempotency(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.idempotency = c
		s.idemTTL = ttl
	}
}

// WithClaimTTL bounds how long an unfinished create holds its idempotency
// key. It should comfortably exceed one create's remote calls.
func WithClaimTTL(d time.Duration) Option {
	return func(s *Service) { s.claimTTL = d }
}

func WithSagaLog(repo sagalog.Repository) Option {
	return func(s *Service) { s.sagaLog = repo }
}

func WithPricingConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(cart CartReader, catalog CatalogReader, store Store, opts ...Option) *Service {
	s := &Service{
		cart:        cart,
		catalog:     catalog,
		store:       store,
		idemTTL:     24 * time.Hour,
		claimTTL:    30 * time.Second,
		publishTTL:  3 * time.Second,
		concurrency: 10,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateOrderInput struct {
	ShippingAddress domain.Address
	IdempotencyKey  string
}

// CreateOrder turns the caller's current cart into a pending order. The
// returned bool is true when an earlier order created with the same
// idempotency key was returned instead.
func (s *Service) CreateOrder(ctx context.Context, id auth.Identity, in CreateOrderInput) (*domain.Order, bool, error) {
	if !CanPerform(id, ActionCreate, nil) {
		return nil, false, apperr.New(apperr.KindForbidden, "role %q cannot create orders", id.Role)
	}
	addr, err := NormalizeAddress(in.ShippingAddress, false)
	if err != nil {
		return nil, false, err
	}

	var idemKey string
	if in.IdempotencyKey != "" && s.idempotency != nil {
		idemKey = s.idempotency.GenerateKey(idempotencyOp, id.ID+":"+in.IdempotencyKey)
		existing, err := s.replay(ctx, id, idemKey)
		if err != nil || existing != nil {
			return existing, existing != nil, err
		}
	}

	orderID := s.newID()
	var (
		items []pricing.CartItem
		quote pricing.Quote
		order *domain.Order
	)

	var steps []coordinator.Step
	if idemKey != "" {
		steps = append(steps, coordinator.NewStep("Claim_Idempotency_Key",
			func(ctx context.Context) error {
				ok, err := s.idempotency.SetNX(ctx, idemKey, claimInProgress, s.claimTTL)
				if err != nil {
					return apperr.Remote(err, "idempotency store unavailable")
				}
				if !ok {
					return apperr.New(apperr.KindConflict, "a request with this idempotency key is already in progress")
				}
				return nil
			},
			func(ctx context.Context) error {
				return s.idempotency.Delete(ctx, idemKey)
			},
		))
	}
	steps = append(steps,
		coordinator.NewStep("Fetch_Cart", func(ctx context.Context) error {
			var err error
			items, err = s.cart.GetCart(ctx, id.Token)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return apperr.New(apperr.KindEmptyCart, "cart is empty")
			}
			return nil
		}, nil),
		coordinator.NewStep("Price_Cart", func(ctx context.Context) error {
			lookup := pricing.LookupFunc(func(ctx context.Context, productID string) (pricing.Product, error) {
				return s.catalog.GetProduct(ctx, id.Token, productID)
			})
			var err error
			quote, err = pricing.PriceCart(ctx, items, lookup, s.concurrency)
			return err
		}, nil),
		coordinator.NewStep("Persist_Order", func(ctx context.Context) error {
			order = domain.NewOrder(orderID, id.ID, quote.Lines, quote.Total, addr, s.now())
			if err := s.store.Create(ctx, order); err != nil {
				return fmt.Errorf("persist order %s: %w", orderID, err)
			}
			return nil
		}, nil),
	)

	payload, _ := json.Marshal(map[string]any{
		"ownerId":         id.ID,
		"shippingAddress": addr,
		"idempotencyKey":  in.IdempotencyKey,
	})
	saga := coordinator.NewOrchestrator(steps, coordinator.WithLog(s.sagaLog))
	if err := saga.Start(ctx, orderID, string(payload)); err != nil {
		slog.WarnContext(ctx, "order creation failed", "owner_id", id.ID, "error", err)
		return nil, false, err
	}

	if idemKey != "" {
		s.settleClaim(context.WithoutCancel(ctx), idemKey, order.ID)
	}

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID, "owner_id", order.OwnerID, "items", len(order.Items), "total", order.TotalAmount.String())
	s.publish(ctx, EventOrderCreated, order)
	return order, false, nil
}

// settleClaim swaps the in-progress claim for the order id. If that fails the
// claim is released so a retry is not refused until it expires.
func (s *Service) settleClaim(ctx context.Context, key, orderID string) {
	err := s.idempotency.Set(ctx, key, orderID, s.idemTTL)
	if err == nil {
		return
	}
	slog.ErrorContext(ctx, "failed to record idempotency key", "order_id", orderID, "error", err)
	if err := s.idempotency.Delete(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to release idempotency claim", "order_id", orderID, "error", err)
	}
}

// replay returns the order previously created under key, or nil when the key
// is unused.
func (s *Service) replay(ctx context.Context, id auth.Identity, key string) (*domain.Order, error) {
	val, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, apperr.Remote(err, "idempotency store unavailable")
	}
	switch val {
	case "":
		return nil, nil
	case claimInProgress:
		return nil, apperr.New(apperr.KindConflict, "a request with this idempotency key is already in progress")
	}
	o, err := s.load(ctx, val)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != id.ID {
		return nil, apperr.NotFound("order")
	}
	slog.InfoContext(ctx, "idempotent replay of order creation", "order_id", o.ID)
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id auth.Identity, orderID string) (*domain.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(id, ActionView, o) {
		return nil, apperr.NotFound("order")
	}
	return o, nil
}

type Page struct {
	Orders []*domain.Order
	Total  int
	Page   int
	Limit  int
}

// NormalizePage applies the listing defaults and caps limit at MaxLimit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func (s *Service) ListOrders(ctx context.Context, id auth.Identity, page, limit int) (Page, error) {
	if !CanPerform(id, ActionList, nil) {
		return Page{}, apperr.New(apperr.KindForbidden, "role %q cannot list orders", id.Role)
	}
	page, limit = NormalizePage(page, limit)

	orders, total, err := s.store.List(ctx, ListFilter{
		OwnerID: ownerScope(id),
		Offset:  (page - 1) * limit,
		Limit:   limit,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return Page{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) CancelOrder(ctx context.Context, id auth.Identity, orderID string) (*domain.Order, error) {
	o, err := s.mutate(ctx, id, orderID, ActionCancel, func(o *domain.Order, now time.Time) error {
		from := o.Status
		if !o.Transition(domain.StatusCancelled, now) {
			return apperr.InvalidTransition("order cannot be cancelled from status %s", from)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order cancelled", "order_id", o.ID, "by", id.ID, "role", id.Role)
	s.publish(ctx, EventOrderCancelled, o)
	return o, nil
}

// UpdateShippingAddress replaces the whole address while the order is still
// pending and uncaptured.
func (s *Service) UpdateShippingAddress(ctx context.Context, id auth.Identity, orderID string, addr domain.Address) (*domain.Order, error) {
	addr, err := NormalizeAddress(addr, true)
	if err != nil {
		return nil, err
	}
	o, err := s.mutate(ctx, id, orderID, ActionUpdateAddress, func(o *domain.Order, now time.Time) error {
		if !o.AddressEditable() {
			return apperr.New(apperr.KindAddressLocked, "shipping address can no longer be changed (status %s)", o.Status)
		}
		o.ShippingAddress = addr
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order shipping address updated", "order_id", o.ID)
	s.publish(ctx, EventOrderAddressUpdated, o)
	return o, nil
}

// AdvanceStatus moves an order along the fulfilment path. Payment and
// cancellation have their own operations.
func (s *Service) AdvanceStatus(ctx context.Context, id auth.Identity, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	switch to {
	case domain.StatusConfirmed, domain.StatusShipped, domain.StatusDelivered:
	default:
		return nil, apperr.Validation("status %q cannot be set directly", to)
	}
	o, err := s.mutate(ctx, id, orderID, ActionAdvanceStatus, func(o *domain.Order, now time.Time) error {
		from := o.Status
		if !o.Transition(to, now) {
			return apperr.InvalidTransition("order cannot move from %s to %s", from, to)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order status advanced", "order_id", o.ID, "status", o.Status)
	s.publish(ctx, EventOrderStatusChanged, o)
	return o, nil
}

// RecordPayment stores the payment collaborator's view of the order's
// payment. A capture moves a confirmed order to paid; a pending order keeps
// its status and only loses address edits.
func (s *Service) RecordPayment(ctx context.Context, id auth.Identity, orderID string, ps domain.PaymentSummary) (*domain.Order, error) {
	if ps.Method == "" {
		return nil, apperr.Validation("payment method is required")
	}
	o, err := s.mutate(ctx, id, orderID, ActionRecordPayment, func(o *domain.Order, now time.Time) error {
		if o.Status != domain.StatusPending && o.Status != domain.StatusConfirmed {
			return apperr.InvalidTransition("payment cannot be recorded for an order in status %s", o.Status)
		}
		if !ps.Amount.Equal(o.TotalAmount) {
			return apperr.Validation("payment amount %s does not match order total %s", ps.Amount, o.TotalAmount)
		}
		summary := ps
		o.PaymentSummary = &summary
		o.UpdatedAt = now
		if ps.Captured && o.Status == domain.StatusConfirmed {
			o.Transition(domain.StatusPaid, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order payment recorded", "order_id", o.ID, "captured", ps.Captured, "status", o.Status)
	s.publish(ctx, EventOrderPaymentUpdated, o)
	return o, nil
}

// mutate reads the order, checks the policy, applies fn and writes it back
// with compare-and-set. On a version conflict the whole sequence is retried
// against the fresh state, so preconditions are always checked against the
// version that gets replaced.
func (s *Service) mutate(ctx context.Context, id auth.Identity, orderID string, action Action, fn func(o *domain.Order, now time.Time) error) (*domain.Order, error) {
	for attempt := 1; attempt <= maxUpdateTries; attempt++ {
		o, err := s.load(ctx, orderID)
		if err != nil {
			return nil, err
		}
		switch decide(id, action, o) {
		case denyRole:
			return nil, apperr.New(apperr.KindForbidden, "role %q cannot %s orders", id.Role, action)
		case denyOwner:
			return nil, apperr.NotFound("order")
		}

		if err := fn(o, s.now()); err != nil {
			return nil, err
		}

		err = s.store.Update(ctx, o)
		if errors.Is(err, ErrVersionConflict) {
			slog.DebugContext(ctx, "order changed concurrently, retrying", "order_id", orderID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update order %s: %w", orderID, err)
		}
		return o, nil
	}
	return nil, apperr.New(apperr.KindConflict, "order %s is being modified concurrently, try again", orderID)
}

func (s *Service) load(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return o, nil
}

// publish never fails the operation; the order is already stored.
func (s *Service) publish(ctx context.Context, eventType string, o *domain.Order) {
	if s.metrics != nil {
		s.metrics.ObserveOrderEvent(eventType)
	}
	if s.events == nil {
		return
	}
	e := Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		OrderID:   o.ID,
		OwnerID:   o.OwnerID,
		Status:    o.Status,
		Total:     o.TotalAmount,
		RequestID: constants.RequestIDFromContext(ctx),
		CreatedAt: s.now(),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTTL)
	defer cancel()
	if err := s.events.Publish(pctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to publish order event", "type", eventType, "order_id", o.ID, "error", err)
	}
}
