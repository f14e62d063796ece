package store

import (
	"context"
	"errors"
	"time"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/types"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// StatusUpdate is the write applied to an order by the reconciler.
type StatusUpdate struct {
	Status    types.OrderStatus
	UpdatedAt time.Time
	// PaidAt is written only when non-nil.
	PaidAt *time.Time
}

type OrderStore interface {
	// FindByGatewayPaymentID looks an order up by the processor payment id.
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	// UpdateStatus writes update to the order with the given primary id. Zero rows
	// affected is reported as ErrNotFound.
	UpdateStatus(ctx context.Context, orderID string, update StatusUpdate) error
	// ListPending returns PENDING orders with a payment id created before createdBefore,
	// oldest first.
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Order, error)
}

type IntegrationStore interface {
	FindActive(ctx context.Context, vendorID, integrationType string) (*models.VendorIntegration, error)
}

type WebhookStore interface {
	// ListActiveForEvent returns the vendor's active webhooks subscribed to event.
	ListActiveForEvent(ctx context.Context, vendorID string, event types.EventType) ([]*models.OutboundWebhook, error)
	GetWebhook(ctx context.Context, id string) (*models.OutboundWebhook, error)
}

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type DeliveryStore interface {
	CreateDelivery(ctx context.Context, d *models.WebhookDelivery) error
	GetDelivery(ctx context.Context, id string) (*models.WebhookDelivery, error)
	// Claim links previousID to nextID unless another redelivery already did.
	// It reports false when the delivery was claimed before.
	Claim(ctx context.Context, previousID, nextID string) (bool, error)
	// ListDue returns failed, not superseded deliveries below maxAttempts whose
	// next retry time is at or before now.
	ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*models.WebhookDelivery, error)
	ScanDeliveries(ctx context.Context, req *ScanDeliveriesRequest) (*ScanDeliveriesResponse, error)
}

type NotificationLogStore interface {
	CreateNotificationLog(ctx context.Context, l *models.PaymentNotificationLog) error
}

type ScanDeliveriesRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanDeliveriesResponse struct {
	Items []*models.WebhookDelivery `json:"items"`
	Total int64                     `json:"total"`
}

// DeliveryFilterFields are the columns admin filters and sorting may reference.
var DeliveryFilterFields = []string{
	"id", "webhook_id", "order_id", "product_id", "event_type", "status",
	"response_status", "attempts", "last_attempt_at", "next_retry_at", "created_at",
}
