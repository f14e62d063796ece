package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/payrecon/pkg/types"
)

// MaxResponseBodyLength bounds WebhookDelivery.ResponseBody, in characters.
const MaxResponseBodyLength = 1000

// WebhookDelivery is one delivery attempt of one event to one webhook. Rows are only
// appended; a redelivery writes a new row and links the previous one through SupersededBy.
type WebhookDelivery struct {
	ID        string               `gorm:"column:id;type:uuid;primary_key" json:"id"`
	WebhookID string               `gorm:"column:webhook_id;type:uuid;not null;index:idx_webhook_delivery_group,priority:1" json:"webhook_id"`
	OrderID   string               `gorm:"column:order_id;type:uuid;not null;index:idx_webhook_delivery_group,priority:2" json:"order_id"`
	ProductID *string              `gorm:"column:product_id;type:uuid" json:"product_id"`
	EventType types.EventType      `gorm:"column:event_type;type:varchar(64);not null;index:idx_webhook_delivery_group,priority:3" json:"event_type"`
	Payload   datatypes.JSON       `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	Status    types.DeliveryStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	// ResponseStatus is 0 when no HTTP response was received.
	ResponseStatus int       `gorm:"column:response_status;not null;default:0" json:"response_status"`
	ResponseBody   string    `gorm:"column:response_body;type:text" json:"response_body"`
	Attempts       int       `gorm:"column:attempts;not null;default:1" json:"attempts"`
	LastAttemptAt  time.Time `gorm:"column:last_attempt_at;not null" json:"last_attempt_at"`
	// NextRetryAt is set on failed attempts that may still be redelivered.
	NextRetryAt  *time.Time `gorm:"column:next_retry_at;index" json:"next_retry_at"`
	SupersededBy *string    `gorm:"column:superseded_by;type:uuid" json:"superseded_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}

// TruncateResponseBody cuts s to MaxResponseBodyLength characters.
func TruncateResponseBody(s string) string {
	r := []rune(s)
	if len(r) <= MaxResponseBodyLength {
		return s
	}
	return string(r[:MaxResponseBodyLength])
}
