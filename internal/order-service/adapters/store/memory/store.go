// Package memory keeps orders in process. It is the default store for local
// runs and backs the orchestrator tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
)

type Store struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewStore() *Store {
	return &Store{orders: make(map[string]*domain.Order)}
}

func (s *Store) Create(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("memory: order %s already exists", o.ID)
	}
	o.Version = 1
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, app.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *Store) List(_ context.Context, f app.ListFilter) ([]*domain.Order, int, error) {
	s.mu.RLock()
	matched := make([]*domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.OwnerID == "" || o.OwnerID == f.OwnerID {
			matched = append(matched, o.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if f.Offset >= total {
		return []*domain.Order{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (s *Store) Update(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.orders[o.ID]
	if !ok {
		return app.ErrOrderNotFound
	}
	if cur.Version != o.Version {
		return app.ErrVersionConflict
	}
	o.Version++
	s.orders[o.ID] = o.Clone()
	return nil
}

var _ app.Store = (*Store)(nil)
