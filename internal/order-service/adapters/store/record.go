// Package store holds the row encoding shared by the SQL order stores.
// Amounts are kept as decimal TEXT and nested structures as JSON.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/shopspring/decimal"
)

type Record struct {
	ID              string
	OwnerID         string
	Status          string
	TotalAmount     string
	Currency        string
	Items           []byte
	ShippingAddress []byte
	Timeline        []byte
	PaymentSummary  []byte // nil when no payment was recorded
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

func Encode(o *domain.Order) (Record, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return Record{}, fmt.Errorf("encode items: %w", err)
	}
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return Record{}, fmt.Errorf("encode address: %w", err)
	}
	timeline, err := json.Marshal(o.Timeline)
	if err != nil {
		return Record{}, fmt.Errorf("encode timeline: %w", err)
	}
	var payment []byte
	if o.PaymentSummary != nil {
		if payment, err = json.Marshal(o.PaymentSummary); err != nil {
			return Record{}, fmt.Errorf("encode payment summary: %w", err)
		}
	}
	return Record{
		ID:              o.ID,
		OwnerID:         o.OwnerID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount.Amount.String(),
		Currency:        o.TotalAmount.Currency,
		Items:           items,
		ShippingAddress: addr,
		Timeline:        timeline,
		PaymentSummary:  payment,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Version:         o.Version,
	}, nil
}

func (r Record) Decode() (*domain.Order, error) {
	amount, err := decimal.NewFromString(r.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("decode total of %s: %w", r.ID, err)
	}
	o := &domain.Order{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Status:      domain.OrderStatus(r.Status),
		TotalAmount: domain.NewMoney(amount, r.Currency),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
	if err := json.Unmarshal(r.Items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.ShippingAddress, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode address of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.Timeline, &o.Timeline); err != nil {
		return nil, fmt.Errorf("decode timeline of %s: %w", r.ID, err)
	}
	if len(r.PaymentSummary) > 0 {
		var ps domain.PaymentSummary
		if err := json.Unmarshal(r.PaymentSummary, &ps); err != nil {
			return nil, fmt.Errorf("decode payment summary of %s: %w", r.ID, err)
		}
		o.PaymentSummary = &ps
	}
	return o, nil
}
