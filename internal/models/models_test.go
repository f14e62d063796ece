package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/fatflowers/payrecon/pkg/types"
)

func TestTableNames(t *testing.T) {
	require.Equal(t, "orders", Order{}.TableName())
	require.Equal(t, "vendor_integrations", VendorIntegration{}.TableName())
	require.Equal(t, "outbound_webhooks", OutboundWebhook{}.TableName())
	require.Equal(t, "webhook_deliveries", WebhookDelivery{}.TableName())
	require.Equal(t, "products", Product{}.TableName())
	require.Equal(t, "payment_notification_log", PaymentNotificationLog{}.TableName())
}

func TestOrder_Defaults(t *testing.T) {
	o := &Order{AmountCents: 12990}
	assert.InDelta(t, 129.90, o.AmountMajor(), 1e-9)
	assert.Equal(t, "BRL", o.CurrencyOrDefault())
	assert.Equal(t, "pix", o.PaymentMethodOrDefault())

	card := "credit_card"
	o = &Order{Currency: "USD", PaymentMethod: &card}
	assert.Equal(t, "USD", o.CurrencyOrDefault())
	assert.Equal(t, "credit_card", o.PaymentMethodOrDefault())
}

func TestOutboundWebhook_Subscribes(t *testing.T) {
	w := &OutboundWebhook{Active: true, Events: datatypes.JSONSlice[string]{"purchase_approved", "refund"}}
	assert.True(t, w.Subscribes(types.EventTypePurchaseApproved))
	assert.False(t, w.Subscribes(types.EventTypeChargeback))

	w.Active = false
	assert.False(t, w.Subscribes(types.EventTypePurchaseApproved))
}

func TestTruncateResponseBody(t *testing.T) {
	assert.Equal(t, "ok", TruncateResponseBody("ok"))

	long := strings.Repeat("é", 1500)
	got := TruncateResponseBody(long)
	assert.Equal(t, 1000, len([]rune(got)))
}
