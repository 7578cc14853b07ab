// Package remote calls the cart and catalog services over HTTP on behalf of
// the caller, forwarding the caller's bearer token unchanged.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/pkg/apperr"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/constants"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns a client that gives up after timeout and records an
// outbound span per request.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

type base struct {
	service string
	baseURL string
	client  *http.Client
}

func newBase(service, baseURL string, client *http.Client) base {
	if client == nil {
		client = NewHTTPClient(5 * time.Second)
	}
	return base{service: service, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// getJSON performs a single GET attempt. Every failure, including a non-2xx
// answer, is reported as RemoteUnavailable.
func (b base) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return apperr.Remote(err, "%s service request could not be built", b.service)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}
	if rid := constants.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set(constants.HeaderXRequestId, rid)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return apperr.Remote(err, "%s service unavailable", b.service)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperr.Remote(fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body))),
			"%s service returned status %d", b.service, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Remote(err, "%s service sent an unreadable response", b.service)
	}
	return nil
}
