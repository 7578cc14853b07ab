package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:        http.StatusBadRequest,
		KindEmptyCart:         http.StatusBadRequest,
		KindUnauthenticated:   http.StatusUnauthorized,
		KindForbidden:         http.StatusForbidden,
		KindNotFound:          http.StatusNotFound,
		KindInvalidTransition: http.StatusConflict,
		KindAddressLocked:     http.StatusConflict,
		KindInsufficientStock: http.StatusConflict,
		KindMixedCurrency:     http.StatusConflict,
		KindRemoteUnavailable: http.StatusBadGateway,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, want := range cases {
		t.Run(string(kind), func(t *testing.T) {
			assert.Equal(t, want, HTTPStatus(kind))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(KindInsufficientStock, "product %s is out of stock", "Mug")
	wrapped := fmt.Errorf("price cart: %w", base)

	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, New(KindInsufficientStock, "")))
	assert.False(t, errors.Is(wrapped, NotFound("order")))
}

func TestPublic_HidesInternalCause(t *testing.T) {
	status, code, msg := Public(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", code)
	assert.Equal(t, "internal error", msg)

	status, code, msg = Public(Remote(errors.New("dial tcp"), "cart service unavailable"))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "remote_unavailable", code)
	assert.Equal(t, "cart service unavailable", msg)
}
