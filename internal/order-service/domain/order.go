package domain

import "time"

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

type LineItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unitPrice"`
	LineTotal Money  `json:"lineTotal"`
}

type TimelineEntry struct {
	Status OrderStatus `json:"status"`
	Date   time.Time   `json:"date"`
}

// PaymentSummary is owned by the payment collaborator. The order service only
// reads Captured to decide whether the shipping address is still editable.
type PaymentSummary struct {
	Method   string `json:"method"`
	Captured bool   `json:"captured"`
	Amount   Money  `json:"amount"`
}

type Order struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"ownerId"`
	Items           []LineItem      `json:"items"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     Money           `json:"totalAmount"`
	ShippingAddress Address         `json:"shippingAddress"`
	Timeline        []TimelineEntry `json:"timeline"`
	PaymentSummary  *PaymentSummary `json:"paymentSummary,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	// Version is bumped by the store on every successful write and is used
	// for compare-and-set updates.
	Version int `json:"-"`
}

// NewOrder builds a pending order with its initial timeline entry.
func NewOrder(id, ownerID string, items []LineItem, total Money, addr Address, now time.Time) *Order {
	return &Order{
		ID:              id,
		OwnerID:         ownerID,
		Items:           items,
		Status:          StatusPending,
		TotalAmount:     total,
		ShippingAddress: addr,
		Timeline:        []TimelineEntry{{Status: StatusPending, Date: now}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Transition moves the order to next and records it on the timeline.
// It returns false without touching the order when the edge is not allowed.
func (o *Order) Transition(next OrderStatus, now time.Time) bool {
	if !o.Status.CanTransitionTo(next) {
		return false
	}
	o.Status = next
	o.Timeline = append(o.Timeline, TimelineEntry{Status: next, Date: now})
	o.UpdatedAt = now
	return true
}

// AddressEditable reports whether the shipping address may still be replaced.
func (o *Order) AddressEditable() bool {
	if o.Status != StatusPending {
		return false
	}
	return o.PaymentSummary == nil || !o.PaymentSummary.Captured
}

func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]LineItem(nil), o.Items...)
	cp.Timeline = append([]TimelineEntry(nil), o.Timeline...)
	if o.PaymentSummary != nil {
		ps := *o.PaymentSummary
		cp.PaymentSummary = &ps
	}
	return &cp
}
