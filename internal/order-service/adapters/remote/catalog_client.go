package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/pricing"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/apperr"
)

type CatalogClient struct {
	base
}

func NewCatalogClient(baseURL string, client *http.Client) *CatalogClient {
	return &CatalogClient{base: newBase("catalog", baseURL, client)}
}

// The catalog serialises ids as _id; id is accepted as well.
type productResponse struct {
	Product struct {
		MongoID string       `json:"_id"`
		ID      string       `json:"id"`
		Title   string       `json:"title"`
		Stock   int          `json:"stock"`
		Price   domain.Money `json:"price"`
	} `json:"product"`
}

func (c *CatalogClient) GetProduct(ctx context.Context, token, productID string) (pricing.Product, error) {
	var resp productResponse
	if err := c.getJSON(ctx, "/api/products/"+url.PathEscape(productID), token, &resp); err != nil {
		return pricing.Product{}, err
	}
	p := resp.Product
	if p.Price.Currency == "" {
		return pricing.Product{}, apperr.Remote(errors.New("missing price currency"),
			"catalog service sent an incomplete product %s", productID)
	}

	id := p.ID
	if id == "" {
		id = p.MongoID
	}
	if id == "" {
		id = productID
	}
	return pricing.Product{ID: id, Title: p.Title, Stock: p.Stock, Price: p.Price}, nil
}

var _ app.CatalogReader = (*CatalogClient)(nil)
