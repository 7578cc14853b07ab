package remote

import (
	"context"
	"net/http"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/pricing"
)

type CartClient struct {
	base
}

func NewCartClient(baseURL string, client *http.Client) *CartClient {
	return &CartClient{base: newBase("cart", baseURL, client)}
}

type cartResponse struct {
	Cart struct {
		Items []pricing.CartItem `json:"items"`
	} `json:"cart"`
}

// GetCart returns the cart of the user token belongs to.
func (c *CartClient) GetCart(ctx context.Context, token string) ([]pricing.CartItem, error) {
	var resp cartResponse
	if err := c.getJSON(ctx, "/api/cart", token, &resp); err != nil {
		return nil, err
	}
	return resp.Cart.Items, nil
}

var _ app.CartReader = (*CartClient)(nil)
