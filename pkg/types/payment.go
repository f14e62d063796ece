package types

type PaymentProvider string

const (
	PaymentProviderMercadoPago PaymentProvider = "MERCADOPAGO"
)

// OrderStatus is the lifecycle status of an order. Values outside the known set are
// preserved as-is when read from storage.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

func (s OrderStatus) Known() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// EventType is the semantic event delivered to vendor webhooks.
type EventType string

const (
	EventTypeNone             EventType = ""
	EventTypePurchaseApproved EventType = "purchase_approved"
	EventTypePixGenerated     EventType = "pix_generated"
	EventTypePurchaseRefused  EventType = "purchase_refused"
	EventTypeRefund           EventType = "refund"
	EventTypeChargeback       EventType = "chargeback"
)

type DeliveryStatus string

const (
	DeliveryStatusSuccess DeliveryStatus = "success"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

const (
	DefaultCurrency      = "BRL"
	DefaultPaymentMethod = "pix"
)
