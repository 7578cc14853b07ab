package httpx

import (
	"time"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/domain"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/infra/httpx/render"
)

type AddressDTO struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

type ShippingAddressRequest struct {
	ShippingAddress *AddressDTO `json:"shippingAddress"`
}

type AdvanceStatusRequest struct {
	Status string `json:"status"`
}

type RecordPaymentRequest struct {
	Method   string        `json:"method"`
	Captured bool          `json:"captured"`
	Amount   *domain.Money `json:"amount"`
}

type LineItemResponse struct {
	ProductID string       `json:"productId"`
	Title     string       `json:"title,omitempty"`
	Quantity  int          `json:"quantity"`
	UnitPrice domain.Money `json:"unitPrice"`
	LineTotal domain.Money `json:"lineTotal"`
}

type TimelineEntryResponse struct {
	Status string `json:"status"`
	Date   string `json:"date"`
}

type PaymentSummaryResponse struct {
	Method   string       `json:"method"`
	Captured bool         `json:"captured"`
	Amount   domain.Money `json:"amount"`
}

type OrderResponse struct {
	ID              string                  `json:"id"`
	OwnerID         string                  `json:"ownerId"`
	Status          string                  `json:"status"`
	Items           []LineItemResponse      `json:"items"`
	TotalAmount     domain.Money            `json:"totalAmount"`
	ShippingAddress AddressDTO              `json:"shippingAddress"`
	Timeline        []TimelineEntryResponse `json:"timeline"`
	PaymentSummary  *PaymentSummaryResponse `json:"paymentSummary,omitempty"`
	CreatedAt       string                  `json:"createdAt"`
	UpdatedAt       string                  `json:"updatedAt"`
}

type OrderEnvelope struct {
	Order OrderResponse `json:"order"`
}

type ListMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Meta   ListMeta        `json:"meta"`
}

type ErrorResponse = render.ErrorResponse

func (a AddressDTO) toDomain() domain.Address {
	return domain.Address{Street: a.Street, City: a.City, State: a.State, Pincode: a.Pincode, Country: a.Country}
}

func mapOrderToResponse(o *domain.Order) OrderResponse {
	items := make([]LineItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = LineItemResponse{
			ProductID: it.ProductID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		}
	}
	timeline := make([]TimelineEntryResponse, len(o.Timeline))
	for i, e := range o.Timeline {
		timeline[i] = TimelineEntryResponse{Status: string(e.Status), Date: formatTime(e.Date)}
	}

	resp := OrderResponse{
		ID:          o.ID,
		OwnerID:     o.OwnerID,
		Status:      string(o.Status),
		Items:       items,
		TotalAmount: o.TotalAmount,
		ShippingAddress: AddressDTO{
			Street:  o.ShippingAddress.Street,
			City:    o.ShippingAddress.City,
			State:   o.ShippingAddress.State,
			Pincode: o.ShippingAddress.Pincode,
			Country: o.ShippingAddress.Country,
		},
		Timeline:  timeline,
		CreatedAt: formatTime(o.CreatedAt),
		UpdatedAt: formatTime(o.UpdatedAt),
	}
	if ps := o.PaymentSummary; ps != nil {
		resp.PaymentSummary = &PaymentSummaryResponse{Method: ps.Method, Captured: ps.Captured, Amount: ps.Amount}
	}
	return resp
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
