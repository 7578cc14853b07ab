// Package pricing turns a cart snapshot into priced order lines.
package pricing

import (
	"context"
	"fmt"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/apperr"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 10

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Product is the slice of a catalog record that pricing needs.
type Product struct {
	ID    string
	Title string
	Stock int
	Price domain.Money
}

// Lookup resolves a product id to its current price and stock.
type Lookup interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

type LookupFunc func(ctx context.Context, productID string) (Product, error)

func (f LookupFunc) GetProduct(ctx context.Context, productID string) (Product, error) {
	return f(ctx, productID)
}

type Quote struct {
	Lines []domain.LineItem
	Total domain.Money
}

// PriceCart looks up every distinct product once, concurrently, and prices the
// cart in its original order. The first failing line aborts the whole quote.
func PriceCart(ctx context.Context, items []CartItem, lookup Lookup, limit int) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, apperr.New(apperr.KindEmptyCart, "cart is empty")
	}
	if limit <= 0 {
		limit = defaultConcurrency
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]int, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			return Quote{}, apperr.Validation("cart line %d has no product id", i)
		}
		if it.Quantity < 1 {
			return Quote{}, apperr.Validation("quantity for product %s must be at least 1, got %d", it.ProductID, it.Quantity)
		}
		if _, ok := seen[it.ProductID]; !ok {
			seen[it.ProductID] = len(ids)
			ids = append(ids, it.ProductID)
		}
	}

	products := make([]Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for idx := range ids {
		g.Go(func() error {
			p, err := lookup.GetProduct(gctx, ids[idx])
			if err != nil {
				return fmt.Errorf("lookup product %s: %w", ids[idx], err)
			}
			products[idx] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Quote{}, err
	}

	// Stock is checked per line, not per product: two lines of one product
	// are each compared against the full stock.
	lines := make([]domain.LineItem, len(items))
	for i, it := range items {
		p := products[seen[it.ProductID]]
		name := p.Title
		if name == "" {
			name = it.ProductID
		}
		if it.Quantity > p.Stock {
			return Quote{}, apperr.New(apperr.KindInsufficientStock,
				"insufficient stock for %s: requested %d, available %d", name, it.Quantity, p.Stock)
		}
		lines[i] = domain.LineItem{
			ProductID: it.ProductID,
			Title:     p.Title,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			LineTotal: p.Price.Times(it.Quantity),
		}
	}

	total := domain.Money{Amount: lines[0].LineTotal.Amount, Currency: lines[0].LineTotal.Currency}
	for _, line := range lines[1:] {
		if line.LineTotal.Currency != total.Currency {
			return Quote{}, apperr.New(apperr.KindMixedCurrency,
				"cart mixes currencies %s and %s", total.Currency, line.LineTotal.Currency)
		}
		total.Amount = total.Amount.Add(line.LineTotal.Amount)
	}

	return Quote{Lines: lines, Total: total}, nil
}
