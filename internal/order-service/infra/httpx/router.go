package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/infra/httpx/middlewares"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/auth"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the order routes. m may be nil, in which case no request
// metrics are recorded and /metrics is not served.
func NewRouter(h *Handler, verifier middlewares.TokenVerifier, m *metrics.ServerMetrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middlewares.Authenticate(verifier))

		r.With(middlewares.RequireRoles(auth.RoleUser)).Post("/", h.CreateOrder)
		r.With(middlewares.RequireRoles(auth.RoleUser, auth.RoleAdmin)).Get("/me", h.ListMyOrders)
		r.With(middlewares.RequireRoles(auth.RoleUser, auth.RoleAdmin, auth.RolePayment)).Get("/{id}", h.GetOrderByID)
		r.With(middlewares.RequireRoles(auth.RoleUser, auth.RoleAdmin)).Post("/{id}/cancel", h.CancelOrder)
		r.With(middlewares.RequireRoles(auth.RoleUser)).Patch("/{id}/address", h.UpdateShippingAddress)
		r.With(middlewares.RequireRoles(auth.RoleAdmin)).Post("/{id}/status", h.AdvanceStatus)
		r.With(middlewares.RequireRoles(auth.RolePayment)).Put("/{id}/payment", h.RecordPayment)
	})

	return otelhttp.NewHandler(r, "order-service")
}

var _ middlewares.TokenVerifier = (*auth.Verifier)(nil)
