package models

import (
	"time"

	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/fatflowers/payrecon/pkg/types"
)

// OutboundWebhook is a vendor-configured delivery target.
type OutboundWebhook struct {
	ID       string  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	VendorID string  `gorm:"column:vendor_id;type:uuid;not null;index:idx_outbound_webhook_vendor_active,priority:1" json:"vendor_id"`
	Name     *string `gorm:"column:name;type:varchar(255)" json:"name"`
	URL      string  `gorm:"column:url;type:text;not null" json:"url"`
	// Secret signs deliveries. Empty means the receiver cannot verify them.
	Secret    string                      `gorm:"column:secret;type:varchar(255);not null;default:''" json:"-"`
	Active    bool                        `gorm:"column:active;not null;default:true;index:idx_outbound_webhook_vendor_active,priority:2" json:"active"`
	Events    datatypes.JSONSlice[string] `gorm:"column:events;type:jsonb;not null;default:'[]'" json:"events"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func (OutboundWebhook) TableName() string {
	return "outbound_webhooks"
}

// Subscribes reports whether the webhook is active and listens to event.
func (w *OutboundWebhook) Subscribes(event types.EventType) bool {
	return w.Active && lo.Contains([]string(w.Events), string(event))
}
