// Package postgres stores orders in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/store"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id               TEXT        PRIMARY KEY,
    owner_id         TEXT        NOT NULL,
    status           TEXT        NOT NULL,
    total_amount     TEXT        NOT NULL,
    currency         TEXT        NOT NULL,
    items            JSONB       NOT NULL,
    shipping_address JSONB       NOT NULL,
    timeline         JSONB       NOT NULL,
    payment_summary  JSONB,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL,
    version          INTEGER     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_owner_created ON orders(owner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at DESC);
`

const columns = `id, owner_id, status, total_amount, currency, items, shipping_address,
	timeline, payment_summary, created_at, updated_at, version`

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, pings the server and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Create(ctx context.Context, o *domain.Order) error {
	o.Version = 1
	r, err := store.Encode(o)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO orders (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.OwnerID, r.Status, r.TotalAmount, r.Currency,
		r.Items, r.ShippingAddress, r.Timeline, r.PaymentSummary,
		r.CreatedAt, r.UpdatedAt, r.Version,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("postgres: order %s already exists: %w", o.ID, err)
	}
	if err != nil {
		return fmt.Errorf("postgres: insert order %s: %w", o.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get order %s: %w", id, err)
	}
	return o, nil
}

func (s *Store) List(ctx context.Context, f app.ListFilter) ([]*domain.Order, int, error) {
	// NULL limit means no limit; an empty owner matches every row.
	var limit *int
	if f.Limit > 0 {
		limit = &f.Limit
	}

	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1 = '' OR owner_id = $1)`, f.OwnerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: count orders: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+columns+` FROM orders
		WHERE ($1 = '' OR owner_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, f.OwnerID, limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: list orders: %w", err)
	}
	return orders, total, nil
}

func (s *Store) Update(ctx context.Context, o *domain.Order) error {
	r, err := store.Encode(o)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE orders SET
			status = $2, shipping_address = $3, timeline = $4, payment_summary = $5,
			updated_at = $6, version = version + 1
		WHERE id = $1 AND version = $7`,
		r.ID, r.Status, r.ShippingAddress, r.Timeline, r.PaymentSummary, r.UpdatedAt, r.Version,
	)
	if err != nil {
		return fmt.Errorf("postgres: update order %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("postgres: update order %s: %w", o.ID, err)
		}
		if !exists {
			return app.ErrOrderNotFound
		}
		return app.ErrVersionConflict
	}
	o.Version++
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var r store.Record
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Status, &r.TotalAmount, &r.Currency,
		&r.Items, &r.ShippingAddress, &r.Timeline, &r.PaymentSummary,
		&r.CreatedAt, &r.UpdatedAt, &r.Version); err != nil {
		return nil, err
	}
	r.CreatedAt, r.UpdatedAt = r.CreatedAt.UTC(), r.UpdatedAt.UTC()
	return r.Decode()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ app.Store = (*Store)(nil)
