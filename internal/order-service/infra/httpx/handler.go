package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/infra/httpx/render"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/apperr"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/auth"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/constants"
)

const maxBodyBytes = 1 << 20

// OrderService is what the handler needs from the orchestrator.
type OrderService interface {
	CreateOrder(ctx context.Context, id auth.Identity, in app.CreateOrderInput) (*domain.Order, bool, error)
	GetOrder(ctx context.Context, id auth.Identity, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, id auth.Identity, page, limit int) (app.Page, error)
	CancelOrder(ctx context.Context, id auth.Identity, orderID string) (*domain.Order, error)
	UpdateShippingAddress(ctx context.Context, id auth.Identity, orderID string, addr domain.Address) (*domain.Order, error)
	AdvanceStatus(ctx context.Context, id auth.Identity, orderID string, to domain.OrderStatus) (*domain.Order, error)
	RecordPayment(ctx context.Context, id auth.Identity, orderID string, ps domain.PaymentSummary) (*domain.Order, error)
}

var _ OrderService = (*app.Service)(nil)

// Handler handles incoming HTTP requests for the Order domain.
type Handler struct {
	orders OrderService
}

func NewHandler(orders OrderService) *Handler {
	return &Handler{orders: orders}
}

// CreateOrder prices the caller's cart and persists a pending order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req ShippingAddressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ShippingAddress == nil {
		writeError(w, http.StatusBadRequest, string(apperr.KindValidation), "shippingAddress is required")
		return
	}

	key := strings.TrimSpace(r.Header.Get(constants.HeaderIdempotencyKey))
	if key == "" {
		key = strings.TrimSpace(r.Header.Get(constants.HeaderXIdempotencyKey))
	}

	id := identity(r)
	order, replayed, err := h.orders.CreateOrder(r.Context(), id, app.CreateOrderInput{
		ShippingAddress: req.ShippingAddress.toDomain(),
		IdempotencyKey:  key,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, OrderEnvelope{Order: mapOrderToResponse(order)})
}

// ListMyOrders pages through the caller's orders, or all orders for admins.
// Unparseable page or limit values fall back to the defaults.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	res, err := h.orders.ListOrders(r.Context(), identity(r), page, limit)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	out := ListOrdersResponse{
		Orders: make([]OrderResponse, len(res.Orders)),
		Meta:   ListMeta{Total: res.Total, Page: res.Page, Limit: res.Limit},
	}
	for i, o := range res.Orders {
		out.Orders[i] = mapOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), identity(r), chi.URLParam(r, "id"))
	h.respondOrder(w, r, order, err)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.CancelOrder(r.Context(), identity(r), chi.URLParam(r, "id"))
	h.respondOrder(w, r, order, err)
}

func (h *Handler) UpdateShippingAddress(w http.ResponseWriter, r *http.Request) {
	var req ShippingAddressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ShippingAddress == nil {
		writeError(w, http.StatusBadRequest, string(apperr.KindValidation), "shippingAddress is required")
		return
	}
	order, err := h.orders.UpdateShippingAddress(r.Context(), identity(r), chi.URLParam(r, "id"), req.ShippingAddress.toDomain())
	h.respondOrder(w, r, order, err)
}

func (h *Handler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req AdvanceStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to := domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !to.Valid() {
		writeError(w, http.StatusBadRequest, string(apperr.KindValidation), "unknown status "+strconv.Quote(req.Status))
		return
	}
	order, err := h.orders.AdvanceStatus(r.Context(), identity(r), chi.URLParam(r, "id"), to)
	h.respondOrder(w, r, order, err)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, string(apperr.KindValidation), "amount is required")
		return
	}
	order, err := h.orders.RecordPayment(r.Context(), identity(r), chi.URLParam(r, "id"), domain.PaymentSummary{
		Method:   strings.TrimSpace(req.Method),
		Captured: req.Captured,
		Amount:   *req.Amount,
	})
	h.respondOrder(w, r, order, err)
}

func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, order *domain.Order, err error) {
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderEnvelope{Order: mapOrderToResponse(order)})
}

// identity is always present behind the auth middleware.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is empty")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
	return false
}

func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := apperr.Public(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.InfoContext(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	}
	writeError(w, status, code, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	render.JSON(w, status, v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	render.Error(w, status, code, msg)
}
