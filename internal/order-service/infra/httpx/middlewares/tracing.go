package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/constants"
)

// AttachRequestID copies chi's request id into the context under our own key
// so remote clients and log records can pick it up, and echoes it back.
func AttachRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set(constants.HeaderXRequestId, requestID)
		ctx := constants.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
