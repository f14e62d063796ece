package reconcile

import (
	"github.com/fatflowers/payrecon/internal/platform/mercadopago"
	"github.com/fatflowers/payrecon/pkg/types"
)

// Mapping is what a processor status means for the order. A zero OrderStatus keeps the
// order's current status and a zero EventType sends nothing.
type Mapping struct {
	OrderStatus types.OrderStatus
	EventType   types.EventType
}

// Known reports whether the processor status had a mapping.
func (m Mapping) Known() bool {
	return m.OrderStatus != ""
}

// MapStatus is total: unknown statuses map to the zero Mapping.
func MapStatus(processorStatus string) Mapping {
	switch processorStatus {
	case mercadopago.StatusApproved:
		return Mapping{types.OrderStatusPaid, types.EventTypePurchaseApproved}
	case mercadopago.StatusPending, mercadopago.StatusInProcess, mercadopago.StatusInMediation:
		return Mapping{types.OrderStatusPending, types.EventTypePixGenerated}
	case mercadopago.StatusRejected, mercadopago.StatusCancelled:
		return Mapping{types.OrderStatusCancelled, types.EventTypePurchaseRefused}
	case mercadopago.StatusRefunded:
		return Mapping{types.OrderStatusRefunded, types.EventTypeRefund}
	case mercadopago.StatusChargedBack:
		return Mapping{types.OrderStatusRefunded, types.EventTypeChargeback}
	default:
		return Mapping{}
	}
}

// AllowTransition guards against out-of-order notifications moving an order backwards.
// Reapplying the current status is always allowed. Statuses this service does not know
// are left to the caller.
func AllowTransition(from, to types.OrderStatus) bool {
	if from == to || !from.Known() {
		return true
	}
	switch from {
	case types.OrderStatusPending:
		return true
	case types.OrderStatusPaid:
		return to == types.OrderStatusRefunded
	case types.OrderStatusCancelled:
		return to == types.OrderStatusPaid || to == types.OrderStatusRefunded
	case types.OrderStatusRefunded:
		return false
	}
	return true
}
