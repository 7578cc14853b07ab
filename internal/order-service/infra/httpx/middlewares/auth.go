package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/infra/httpx/render"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/apperr"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/auth"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/constants"
)

// TokenVerifier resolves a raw token to a caller identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Authenticate accepts a bearer token in the Authorization header or, failing
// that, the token cookie set by the storefront.
func Authenticate(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				deny(w, apperr.KindUnauthenticated, "missing credentials")
				return
			}
			id, err := v.Verify(token)
			if err != nil {
				deny(w, apperr.KindUnauthenticated, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRoles rejects authenticated callers whose role is not listed.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				deny(w, apperr.KindUnauthenticated, "missing credentials")
				return
			}
			if !slices.Contains(roles, id.Role) {
				deny(w, apperr.KindForbidden, "role "+id.Role+" may not perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(constants.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(constants.TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func deny(w http.ResponseWriter, kind apperr.Kind, msg string) {
	render.Error(w, apperr.HTTPStatus(kind), string(kind), msg)
}
