package webhook

import (
	"time"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/types"
)

type Customer struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

type ProductRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Payload is the body delivered to every subscriber of one event.
type Payload struct {
	Event           types.EventType       `json:"event"`
	OrderID         string                `json:"order_id"`
	Status          types.OrderStatus     `json:"status"`
	PaymentProvider types.PaymentProvider `json:"payment_provider"`
	PaymentID       string                `json:"payment_id"`
	// Amount is in major currency units.
	Amount        float64     `json:"amount"`
	Currency      string      `json:"currency"`
	PaymentMethod string      `json:"payment_method"`
	Customer      Customer    `json:"customer"`
	Product       *ProductRef `json:"product"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Timestamp     time.Time   `json:"timestamp"`
}

// BuildPayload assembles the payload for order. product may be nil.
func BuildPayload(event types.EventType, order *models.Order, paymentID string, product *models.Product, now time.Time) *Payload {
	p := &Payload{
		Event:           event,
		OrderID:         order.ID,
		Status:          order.Status,
		PaymentProvider: types.PaymentProviderMercadoPago,
		PaymentID:       paymentID,
		Amount:          order.AmountMajor(),
		Currency:        order.CurrencyOrDefault(),
		PaymentMethod:   order.PaymentMethodOrDefault(),
		Customer:        Customer{Email: order.CustomerEmail, Name: order.CustomerName},
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Timestamp:       now,
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if product != nil {
		p.Product = &ProductRef{ID: product.ID, Name: product.Name}
	}
	return p
}
