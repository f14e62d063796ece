package notification_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/reconcile"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/platform/mercadopago"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/types"
)

type memAudit struct {
	mu      sync.Mutex
	entries []*models.PaymentNotificationLog
}

func (m *memAudit) Save(_ context.Context, e *models.PaymentNotificationLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

type fakeReconciler struct {
	calls []string
	res   *reconcile.Result
	err   error
}

func (f *fakeReconciler) ReconcilePayment(_ context.Context, paymentID string) (*reconcile.Result, error) {
	f.calls = append(f.calls, paymentID)
	return f.res, f.err
}

func processed(orderID string) *reconcile.Result {
	return &reconcile.Result{
		OrderID: orderID,
		Outcome: &reconcile.Outcome{OrderID: orderID, Status: types.OrderStatusPaid, Applied: true},
	}
}

var testNow = time.Unix(1767225600, 0)

func newHandler(secret string, rec *fakeReconciler) (*NotificationHandler, *memAudit) {
	cfg := &config.Config{}
	cfg.MercadoPago.WebhookSecret = secret
	audit := &memAudit{}
	h := NewNotificationHandler(cfg, audit, rec, zap.NewNop().Sugar(), nil)
	h.now = func() time.Time { return testNow }
	return h, audit
}

func body(s string) Request { return Request{Body: []byte(s)} }

func TestHandle_Processed(t *testing.T) {
	rec := &fakeReconciler{res: processed("order-1")}
	h, audit := newHandler("", rec)

	res := h.HandleMercadoPago(context.Background(), body(`{"type":"payment","data":{"id":"123"}}`))
	assert.Equal(t, ResultProcessed, res.Kind)
	assert.Equal(t, "order-1", res.OrderID)
	assert.Equal(t, []string{"123"}, rec.calls)

	require.Len(t, audit.entries, 2)
	assert.Equal(t, models.PaymentNotificationLogStatusReceived, audit.entries[0].Status)
	assert.Equal(t, models.PaymentNotificationLogStatusHandled, audit.entries[1].Status)
	assert.Equal(t, "123", audit.entries[1].PaymentID)
	require.NotNil(t, audit.entries[1].OrderID)
	assert.Equal(t, "order-1", *audit.entries[1].OrderID)
}

func TestHandle_NonPaymentShortCircuits(t *testing.T) {
	rec := &fakeReconciler{}
	h, audit := newHandler("", rec)

	res := h.HandleMercadoPago(context.Background(), body(`{"type":"merchant_order","data":{"id":"1"}}`))
	assert.Equal(t, ResultIgnored, res.Kind)
	assert.Equal(t, "notification type ignored", res.Message)
	assert.Empty(t, rec.calls)
	assert.Equal(t, models.PaymentNotificationLogStatusIgnored, audit.entries[1].Status)
}

func TestHandle_MissingPaymentID(t *testing.T) {
	rec := &fakeReconciler{}
	h, _ := newHandler("", rec)

	res := h.HandleMercadoPago(context.Background(), body(`{"type":"payment","data":{}}`))
	assert.Equal(t, ResultFailed, res.Kind)
	assert.Equal(t, "payment id not provided", res.Message)
	assert.Empty(t, rec.calls)
}

func TestHandle_InvalidBody(t *testing.T) {
	rec := &fakeReconciler{}
	h, audit := newHandler("", rec)

	res := h.HandleMercadoPago(context.Background(), body(`{broken`))
	assert.Equal(t, ResultFailed, res.Kind)
	assert.Equal(t, ErrInvalidBody.Error(), res.Message)
	assert.Empty(t, rec.calls)

	require.Len(t, audit.entries, 2)
	var raw map[string]string
	require.NoError(t, json.Unmarshal(audit.entries[0].Data, &raw))
	assert.Equal(t, "{broken", raw["raw"])
}

func TestHandle_OrderNotFoundIsIgnored(t *testing.T) {
	rec := &fakeReconciler{err: fmt.Errorf("%w for payment 9", reconcile.ErrOrderNotFound)}
	h, _ := newHandler("", rec)

	res := h.HandleMercadoPago(context.Background(), body(`{"type":"payment","data":{"id":9}}`))
	assert.Equal(t, ResultIgnored, res.Kind)
	assert.Equal(t, "order not found", res.Message)
}

func TestHandle_ReconcileErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w for vendor v: record not found", reconcile.ErrIntegrationNotFound), reconcile.ErrIntegrationNotFound.Error()},
		{fmt.Errorf("%w 1: failed http=404", reconcile.ErrPaymentFetch), reconcile.ErrPaymentFetch.Error()},
		{fmt.Errorf("%w o: timeout", reconcile.ErrOrderUpdate), reconcile.ErrOrderUpdate.Error()},
		{errors.New("pq: password authentication failed"), "internal error"},
	}
	for _, tt := range tests {
		h, audit := newHandler("", &fakeReconciler{err: tt.err})
		res := h.HandleMercadoPago(context.Background(), body(`{"type":"payment","data":{"id":"1"}}`))
		assert.Equal(t, ResultFailed, res.Kind)
		assert.Equal(t, tt.want, res.Message)
		assert.Equal(t, models.PaymentNotificationLogStatusHandleFailed, audit.entries[1].Status)
	}
}

func signedRequest(secret, dataID, requestID string, ts int64) Request {
	tsStr := strconv.FormatInt(ts, 10)
	return Request{
		Body:      []byte(`{"type":"payment","data":{"id":"` + dataID + `"}}`),
		Signature: "ts=" + tsStr + ",v1=" + mercadopago.SignNotification(secret, dataID, requestID, tsStr),
		RequestID: requestID,
	}
}

func TestHandle_SignatureAccepted(t *testing.T) {
	rec := &fakeReconciler{res: processed("order-1")}
	h, _ := newHandler("mp-secret", rec)

	res := h.HandleMercadoPago(context.Background(), signedRequest("mp-secret", "555", "req-1", testNow.Unix()))
	assert.Equal(t, ResultProcessed, res.Kind)
	assert.Len(t, rec.calls, 1)
}

func TestHandle_SignatureRejected(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		code string
	}{
		{"missing headers", body(`{"type":"payment","data":{"id":"555"}}`), mercadopago.CodeMissingSignatureHeaders},
		{"wrong secret", signedRequest("other", "555", "req-1", testNow.Unix()), mercadopago.CodeSignatureMismatch},
		{"expired", signedRequest("mp-secret", "555", "req-1", testNow.Add(-time.Hour).Unix()), mercadopago.CodeWebhookExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeReconciler{}
			h, _ := newHandler("mp-secret", rec)
			res := h.HandleMercadoPago(context.Background(), tt.req)
			assert.Equal(t, ResultFailed, res.Kind)
			assert.Equal(t, "invalid signature: "+tt.code, res.Message)
			assert.Empty(t, rec.calls)
		})
	}
}
