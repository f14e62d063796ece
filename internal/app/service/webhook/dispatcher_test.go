package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/types"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{Webhooks: config.WebhooksConfig{Timeout: 2 * time.Second, MaxAttempts: 5}}
}

func testOrder() *models.Order {
	return &models.Order{
		ID:               "o-1",
		VendorID:         "v-1",
		ProductID:        lo.ToPtr("p-1"),
		GatewayPaymentID: lo.ToPtr("12345"),
		AmountCents:      4990,
		CustomerEmail:    lo.ToPtr("buyer@example.com"),
		CustomerName:     lo.ToPtr("Buyer"),
		Status:           types.OrderStatusPaid,
		CreatedAt:        fixedNow.Add(-time.Hour),
		UpdatedAt:        fixedNow,
	}
}

func hook(id, url, secret string, events ...string) *models.OutboundWebhook {
	return &models.OutboundWebhook{ID: id, VendorID: "v-1", URL: url, Secret: secret, Active: true, Events: datatypes.JSONSlice[string](events)}
}

func newTestDispatcher(t *testing.T, cfg *config.Config, hooks *memWebhooks, products memProducts, deliveries *memDeliveries) *Dispatcher {
	t.Helper()
	d := NewDispatcher(cfg, hooks, products, deliveries, zaptest.NewLogger(t).Sugar(), nil)
	d.sender.now = func() time.Time { return fixedNow }
	return d
}

func TestDispatch_IsolatesSubscriberFailures(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	var okCalls int32
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&okCalls, 1)
		_, _ = w.Write([]byte(`received`))
	}))
	defer ok.Close()

	hooks := &memWebhooks{hooks: []*models.OutboundWebhook{
		hook("w-dead", deadURL, "s1", "purchase_approved"),
		hook("w-ok", ok.URL, "s2", "purchase_approved"),
	}}
	deliveries := &memDeliveries{}
	d := newTestDispatcher(t, testConfig(), hooks, memProducts{}, deliveries)

	report := d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypePurchaseApproved, Order: testOrder(), PaymentID: "12345"})

	require.NoError(t, report.Err)
	require.Len(t, report.Outcomes, 2)
	assert.False(t, report.Outcomes[0].Delivered)
	assert.True(t, report.Outcomes[1].Delivered)
	assert.Equal(t, 1, report.Delivered())
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&okCalls))

	deadRows := deliveries.byWebhook("w-dead")
	require.Len(t, deadRows, 1)
	assert.Equal(t, types.DeliveryStatusFailed, deadRows[0].Status)
	assert.Equal(t, 0, deadRows[0].ResponseStatus)
	assert.NotEmpty(t, deadRows[0].ResponseBody)
	assert.Equal(t, 1, deadRows[0].Attempts)
	require.NotNil(t, deadRows[0].NextRetryAt)
	assert.Equal(t, fixedNow.Add(time.Minute), *deadRows[0].NextRetryAt)

	okRows := deliveries.byWebhook("w-ok")
	require.Len(t, okRows, 1)
	assert.Equal(t, types.DeliveryStatusSuccess, okRows[0].Status)
	assert.Equal(t, 200, okRows[0].ResponseStatus)
	assert.Equal(t, "received", okRows[0].ResponseBody)
	assert.Nil(t, okRows[0].NextRetryAt)
}

func TestDispatch_SignedRequestAndPayload(t *testing.T) {
	var got struct {
		body    []byte
		headers http.Header
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.body, _ = io.ReadAll(r.Body)
		got.headers = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hooks := &memWebhooks{hooks: []*models.OutboundWebhook{hook("w-1", srv.URL, "shh", "purchase_approved")}}
	products := memProducts{"p-1": {ID: "p-1", Name: "Course"}}
	deliveries := &memDeliveries{}
	d := newTestDispatcher(t, testConfig(), hooks, products, deliveries)

	report := d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypePurchaseApproved, Order: testOrder(), PaymentID: "12345"})
	require.Len(t, report.Outcomes, 1)
	require.True(t, report.Outcomes[0].Delivered)

	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Equal(t, "purchase_approved", got.headers.Get(HeaderEvent))
	assert.Equal(t, UserAgent, got.headers.Get("User-Agent"))
	assert.Equal(t, report.Outcomes[0].DeliveryID, got.headers.Get(HeaderDeliveryID))
	assert.True(t, Verify(got.body, "shh", got.headers.Get(HeaderSignature)))

	var p map[string]any
	require.NoError(t, json.Unmarshal(got.body, &p))
	assert.Equal(t, "purchase_approved", p["event"])
	assert.Equal(t, "o-1", p["order_id"])
	assert.Equal(t, "PAID", p["status"])
	assert.Equal(t, "MERCADOPAGO", p["payment_provider"])
	assert.Equal(t, "12345", p["payment_id"])
	assert.InDelta(t, 49.90, p["amount"], 1e-9)
	assert.Equal(t, "BRL", p["currency"])
	assert.Equal(t, "pix", p["payment_method"])
	assert.Equal(t, map[string]any{"email": "buyer@example.com", "name": "Buyer"}, p["customer"])
	assert.Equal(t, map[string]any{"id": "p-1", "name": "Course"}, p["product"])

	rows := deliveries.byWebhook("w-1")
	require.Len(t, rows, 1)
	assert.JSONEq(t, string(got.body), string(rows[0].Payload))
}

func TestDispatch_MissingProductIsNull(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	hooks := &memWebhooks{hooks: []*models.OutboundWebhook{hook("w-1", srv.URL, "", "refund")}}
	d := newTestDispatcher(t, testConfig(), hooks, memProducts{}, &memDeliveries{})

	d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypeRefund, Order: testOrder(), PaymentID: "12345"})

	var p map[string]any
	require.NoError(t, json.Unmarshal(body, &p))
	v, present := p["product"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestDispatch_TruncatesResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	hooks := &memWebhooks{hooks: []*models.OutboundWebhook{hook("w-1", srv.URL, "k", "purchase_approved")}}
	deliveries := &memDeliveries{}
	d := newTestDispatcher(t, testConfig(), hooks, memProducts{}, deliveries)

	report := d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypePurchaseApproved, Order: testOrder()})
	require.Len(t, report.Outcomes, 1)
	assert.False(t, report.Outcomes[0].Delivered)
	assert.Equal(t, 500, report.Outcomes[0].ResponseStatus)

	rows := deliveries.byWebhook("w-1")
	require.Len(t, rows, 1)
	assert.Equal(t, types.DeliveryStatusFailed, rows[0].Status)
	assert.Len(t, rows[0].ResponseBody, models.MaxResponseBodyLength)
}

func TestDispatch_RedirectCountsAsDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://elsewhere.invalid/", http.StatusFound)
	}))
	defer srv.Close()

	hooks := &memWebhooks{hooks: []*models.OutboundWebhook{hook("w-1", srv.URL, "k", "purchase_approved")}}
	deliveries := &memDeliveries{}
	d := newTestDispatcher(t, testConfig(), hooks, memProducts{}, deliveries)

	report := d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypePurchaseApproved, Order: testOrder()})
	require.Len(t, report.Outcomes, 1)
	assert.True(t, report.Outcomes[0].Delivered)
	assert.Equal(t, http.StatusFound, report.Outcomes[0].ResponseStatus)
}

func TestDispatch_NoSubscribers(t *testing.T) {
	hooks := &memWebhooks{hooks: []*models.OutboundWebhook{hook("w-1", "http://unused.invalid", "k", "refund")}}
	deliveries := &memDeliveries{}
	d := newTestDispatcher(t, testConfig(), hooks, memProducts{}, deliveries)

	report := d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypePurchaseApproved, Order: testOrder()})
	assert.NoError(t, report.Err)
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, deliveries.rows)
}

func TestDispatch_ListFailureIsReported(t *testing.T) {
	hooks := &memWebhooks{listErr: errors.New("db down")}
	deliveries := &memDeliveries{}
	d := newTestDispatcher(t, testConfig(), hooks, memProducts{}, deliveries)

	report := d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypePurchaseApproved, Order: testOrder()})
	assert.EqualError(t, report.Err, "db down")
	assert.Empty(t, deliveries.rows)
}

func TestDispatch_RequireSecret(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Webhooks.RequireSecret = true
	hooks := &memWebhooks{hooks: []*models.OutboundWebhook{
		hook("w-nosecret", srv.URL, "", "purchase_approved"),
		hook("w-secret", srv.URL, "k", "purchase_approved"),
	}}
	deliveries := &memDeliveries{}
	d := newTestDispatcher(t, cfg, hooks, memProducts{}, deliveries)

	report := d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypePurchaseApproved, Order: testOrder()})
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	rows := deliveries.byWebhook("w-nosecret")
	require.Len(t, rows, 1)
	assert.Equal(t, types.DeliveryStatusFailed, rows[0].Status)
	assert.Equal(t, 0, rows[0].ResponseStatus)
	assert.Equal(t, "webhook secret not configured", rows[0].ResponseBody)
	assert.True(t, report.Outcomes[1].Delivered)
}

func TestDispatch_RecordFailureDoesNotStopFanOut(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	hooks := &memWebhooks{hooks: []*models.OutboundWebhook{
		hook("w-1", srv.URL, "a", "purchase_approved"),
		hook("w-2", srv.URL, "b", "purchase_approved"),
	}}
	deliveries := &memDeliveries{createErr: errors.New("insert failed")}
	d := newTestDispatcher(t, testConfig(), hooks, memProducts{}, deliveries)

	report := d.Dispatch(context.Background(), DispatchRequest{VendorID: "v-1", EventType: types.EventTypePurchaseApproved, Order: testOrder()})
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	for _, o := range report.Outcomes {
		assert.True(t, o.Delivered)
		assert.Error(t, o.RecordErr)
	}
}
