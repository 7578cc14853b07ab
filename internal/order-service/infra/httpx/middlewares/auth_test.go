package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/infra/httpx/render"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(v TokenVerifier, roles ...string) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		render.JSON(w, http.StatusOK, map[string]string{"id": id.ID})
	})
	return Authenticate(v)(RequireRoles(roles...)(ok))
}

func serve(h http.Handler, r *http.Request) (*httptest.ResponseRecorder, render.ErrorResponse) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	var body render.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestAuthenticate_DeniesWithErrorEnvelope(t *testing.T) {
	v := auth.NewVerifier("secret")
	h := protected(v, auth.RoleUser)

	rec, body := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, render.ErrorResponse{Error: "unauthenticated", Message: "missing credentials"}, body)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	rec, body = serve(h, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", body.Error)
}

func TestRequireRoles(t *testing.T) {
	v := auth.NewVerifier("secret")
	h := protected(v, auth.RoleAdmin)

	userTok, err := v.Issue("alice", auth.RoleUser, time.Hour)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+userTok)
	rec, body := serve(h, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", body.Error)
	assert.NotEmpty(t, body.Message)

	adminTok, err := v.Issue("root", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: adminTok})
	rec, _ = serve(h, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"root"}`, rec.Body.String())
}
