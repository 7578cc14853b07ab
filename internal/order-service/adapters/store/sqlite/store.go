// Package sqlite stores orders in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/store"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id               TEXT    PRIMARY KEY,
    owner_id         TEXT    NOT NULL,
    status           TEXT    NOT NULL,
    total_amount     TEXT    NOT NULL,
    currency         TEXT    NOT NULL,
    items            TEXT    NOT NULL,
    shipping_address TEXT    NOT NULL,
    timeline         TEXT    NOT NULL,
    payment_summary  TEXT,
    created_at       TEXT    NOT NULL,
    updated_at       TEXT    NOT NULL,
    version          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_owner_created ON orders(owner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at DESC);
`

// Fixed width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const columns = `id, owner_id, status, total_amount, currency, items, shipping_address,
	timeline, payment_summary, created_at, updated_at, version`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// One writer keeps the version check and the write in the same connection
	// and lets ":memory:" survive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, o *domain.Order) error {
	o.Version = 1
	r, err := store.Encode(o)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO orders (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.Status, r.TotalAmount, r.Currency,
		string(r.Items), string(r.ShippingAddress), string(r.Timeline), nullableJSON(r.PaymentSummary),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt), r.Version,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert order %s: %w", o.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, app.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %s: %w", id, err)
	}
	return o, nil
}

func (s *Store) List(ctx context.Context, f app.ListFilter) ([]*domain.Order, int, error) {
	where, args := "", []any{}
	if f.OwnerID != "" {
		where, args = "WHERE owner_id = ?", append(args, f.OwnerID)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: count orders: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM orders `+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: list orders: %w", err)
	}
	return orders, total, nil
}

func (s *Store) Update(ctx context.Context, o *domain.Order) error {
	r, err := store.Encode(o)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET
			status = ?, shipping_address = ?, timeline = ?, payment_summary = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		r.Status, string(r.ShippingAddress), string(r.Timeline), nullableJSON(r.PaymentSummary),
		formatTime(r.UpdatedAt), r.ID, r.Version,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update order %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update order %s: %w", o.ID, err)
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, o.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return app.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("sqlite: update order %s: %w", o.ID, err)
		}
		return app.ErrVersionConflict
	}
	o.Version++
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(sc scanner) (*domain.Order, error) {
	var (
		r                    store.Record
		items, addr, tl      string
		payment              sql.NullString
		createdAt, updatedAt string
	)
	if err := sc.Scan(&r.ID, &r.OwnerID, &r.Status, &r.TotalAmount, &r.Currency,
		&items, &addr, &tl, &payment, &createdAt, &updatedAt, &r.Version); err != nil {
		return nil, err
	}
	r.Items, r.ShippingAddress, r.Timeline = []byte(items), []byte(addr), []byte(tl)
	if payment.Valid {
		r.PaymentSummary = []byte(payment.String)
	}
	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return r.Decode()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

var _ app.Store = (*Store)(nil)
