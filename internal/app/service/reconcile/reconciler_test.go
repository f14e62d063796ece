package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/types"
)

var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newTestReconciler(orders *memOrders) *Reconciler {
	r := NewReconciler(orders, zap.NewNop().Sugar())
	r.now = func() time.Time { return fixedNow }
	return r
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:               "order-1",
		VendorID:         "vendor-1",
		GatewayPaymentID: lo.ToPtr("pay-1"),
		AmountCents:      4990,
		Status:           types.OrderStatusPending,
		CreatedAt:        fixedNow.Add(-time.Hour),
	}
}

func TestReconcile_ApprovedMarksPaid(t *testing.T) {
	orders := newMemOrders(pendingOrder())
	r := newTestReconciler(orders)
	order := orders.get("order-1")

	out, err := r.Reconcile(context.Background(), order, MapStatus("approved"))
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.True(t, out.Changed())
	assert.Equal(t, types.OrderStatusPending, out.PreviousStatus)
	assert.Equal(t, types.OrderStatusPaid, out.Status)
	assert.Equal(t, types.EventTypePurchaseApproved, out.EventType)

	stored := orders.get("order-1")
	assert.Equal(t, types.OrderStatusPaid, stored.Status)
	assert.Equal(t, fixedNow, stored.UpdatedAt)
	require.NotNil(t, stored.PaidAt)
	assert.Equal(t, fixedNow, *stored.PaidAt)
	// caller snapshot follows the write
	assert.Equal(t, types.OrderStatusPaid, order.Status)
}

func TestReconcile_Idempotent(t *testing.T) {
	orders := newMemOrders(pendingOrder())
	r := newTestReconciler(orders)

	_, err := r.Reconcile(context.Background(), orders.get("order-1"), MapStatus("approved"))
	require.NoError(t, err)
	first := orders.get("order-1")

	out, err := r.Reconcile(context.Background(), orders.get("order-1"), MapStatus("approved"))
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.False(t, out.Changed())

	second := orders.get("order-1")
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.PaidAt, second.PaidAt)
	require.Len(t, orders.updates, 2)
	assert.Nil(t, orders.updates[1].PaidAt)
}

func TestReconcile_UnknownStatusKeepsCurrent(t *testing.T) {
	orders := newMemOrders(pendingOrder())
	r := newTestReconciler(orders)

	out, err := r.Reconcile(context.Background(), orders.get("order-1"), MapStatus("authorized"))
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, types.OrderStatusPending, out.Status)
	assert.Equal(t, types.EventTypeNone, out.EventType)
	require.Len(t, orders.updates, 1)
	assert.Equal(t, types.OrderStatusPending, orders.updates[0].Status)
}

func TestReconcile_RefusesRegression(t *testing.T) {
	o := pendingOrder()
	o.Status = types.OrderStatusPaid
	orders := newMemOrders(o)
	r := newTestReconciler(orders)

	out, err := r.Reconcile(context.Background(), orders.get("order-1"), MapStatus("pending"))
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, types.OrderStatusPaid, out.Status)
	assert.Equal(t, types.EventTypeNone, out.EventType)
	assert.Empty(t, orders.updates)
}

func TestReconcile_UpdateFailure(t *testing.T) {
	orders := newMemOrders(pendingOrder())
	orders.updateErr = errors.New("connection reset")
	r := newTestReconciler(orders)

	out, err := r.Reconcile(context.Background(), orders.get("order-1"), MapStatus("approved"))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrOrderUpdate)
}

func TestReconcile_MissingRowIsPersistenceError(t *testing.T) {
	orders := newMemOrders()
	r := newTestReconciler(orders)

	_, err := r.Reconcile(context.Background(), pendingOrder(), MapStatus("approved"))
	assert.ErrorIs(t, err, ErrOrderUpdate)
}
