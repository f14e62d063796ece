package models

import (
	"time"

	"github.com/fatflowers/payrecon/pkg/types"
)

// Order is a purchase attempt created by the checkout flow. This service only reads it
// and updates its status.
type Order struct {
	ID        string  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	VendorID  string  `gorm:"column:vendor_id;type:uuid;not null;index" json:"vendor_id"`
	ProductID *string `gorm:"column:product_id;type:uuid" json:"product_id"`
	// Gateway is the payment processor that owns GatewayPaymentID.
	Gateway string `gorm:"column:gateway;type:varchar(64);not null;default:'mercadopago'" json:"gateway"`
	// GatewayPaymentID is nil until the checkout created a payment at the processor.
	GatewayPaymentID *string           `gorm:"column:gateway_payment_id;type:varchar(128);uniqueIndex" json:"gateway_payment_id"`
	AmountCents      int64             `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency         string            `gorm:"column:currency;type:varchar(8)" json:"currency"`
	PaymentMethod    *string           `gorm:"column:payment_method;type:varchar(32)" json:"payment_method"`
	CustomerEmail    *string           `gorm:"column:customer_email;type:varchar(255)" json:"customer_email"`
	CustomerName     *string           `gorm:"column:customer_name;type:varchar(255)" json:"customer_name"`
	Status           types.OrderStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	PaidAt           *time.Time        `gorm:"column:paid_at;default:null" json:"paid_at"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// AmountMajor converts AmountCents to major currency units.
func (o *Order) AmountMajor() float64 {
	return float64(o.AmountCents) / 100
}

// CurrencyOrDefault returns the order currency, BRL when unset.
func (o *Order) CurrencyOrDefault() string {
	if o.Currency == "" {
		return types.DefaultCurrency
	}
	return o.Currency
}

// PaymentMethodOrDefault returns the payment method, pix when unset.
func (o *Order) PaymentMethodOrDefault() string {
	if o.PaymentMethod == nil || *o.PaymentMethod == "" {
		return types.DefaultPaymentMethod
	}
	return *o.PaymentMethod
}
