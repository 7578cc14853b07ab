package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/pricing"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/apperr"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartClient_ForwardsTokenAndRequestID(t *testing.T) {
	var gotAuth, gotRID, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRID = r.Header.Get("X-Request-Id")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cart":{"items":[{"productId":"p1","quantity":2},{"productId":"p2","quantity":1}]}}`))
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL+"/", NewHTTPClient(time.Second))
	ctx := constants.WithRequestID(context.Background(), "req-42")

	items, err := c.GetCart(ctx, "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, []pricing.CartItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}}, items)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "req-42", gotRID)
	assert.Equal(t, "/api/cart", gotPath)
}

func TestCatalogClient_DecodesProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/p1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"product":{"_id":"p1","title":"Mug","stock":5,"price":{"amount":10.5,"currency":"USD"}}}`))
	}))
	defer srv.Close()

	p, err := NewCatalogClient(srv.URL, nil).GetProduct(context.Background(), "tok", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Mug", p.Title)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, "10.5 USD", p.Price.String())
}

func TestCatalogClient_MissingCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"product":{"id":"p1","stock":5,"price":{"amount":10}}}`))
	}))
	defer srv.Close()

	_, err := NewCatalogClient(srv.URL, nil).GetProduct(context.Background(), "tok", "p1")
	assert.Equal(t, apperr.KindRemoteUnavailable, apperr.KindOf(err))
}

func TestRemoteFailuresAreRemoteUnavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"not found": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"Product not found"}`, http.StatusNotFound)
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"unauthorized": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewCartClient(srv.URL, nil).GetCart(context.Background(), "tok")
			require.Error(t, err)
			assert.Equal(t, apperr.KindRemoteUnavailable, apperr.KindOf(err))
		})
	}
}

func TestRemoteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewCatalogClient(srv.URL, NewHTTPClient(50*time.Millisecond)).GetProduct(context.Background(), "tok", "p1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindRemoteUnavailable, apperr.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewCartClient(url, nil).GetCart(context.Background(), "tok")
	assert.Equal(t, apperr.KindRemoteUnavailable, apperr.KindOf(err))
}
