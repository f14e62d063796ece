package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/types"
)

// Outcome describes what Reconcile did to one order.
type Outcome struct {
	OrderID        string            `json:"order_id"`
	PreviousStatus types.OrderStatus `json:"previous_status"`
	Status         types.OrderStatus `json:"status"`
	EventType      types.EventType   `json:"event_type,omitempty"`
	// Applied is false when the transition was refused and nothing was written.
	Applied bool `json:"applied"`
}

// Changed reports whether the write moved the order to a different status.
func (o *Outcome) Changed() bool {
	return o.Applied && o.PreviousStatus != o.Status
}

// Reconciler applies a Mapping to an order row.
type Reconciler struct {
	orders store.OrderStore
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewReconciler(orders store.OrderStore, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{orders: orders, now: time.Now, log: log}
}

// Reconcile writes the mapped status with a single UPDATE keyed by order.ID. On success
// order is updated in place so callers see the persisted snapshot.
func (r *Reconciler) Reconcile(ctx context.Context, order *models.Order, m Mapping) (*Outcome, error) {
	log := logctx.FromCtx(ctx, r.log)

	target := m.OrderStatus
	if !m.Known() {
		target = order.Status
	}
	out := &Outcome{OrderID: order.ID, PreviousStatus: order.Status, Status: target}

	if !AllowTransition(order.Status, target) {
		log.Warnw("order_transition_refused", "order_id", order.ID, "from", order.Status, "to", target)
		out.Status = order.Status
		return out, nil
	}

	now := r.now().UTC()
	update := store.StatusUpdate{Status: target, UpdatedAt: now}
	if target == types.OrderStatusPaid && order.PaidAt == nil {
		update.PaidAt = &now
	}
	if err := r.orders.UpdateStatus(ctx, order.ID, update); err != nil {
		log.Errorw("order_update_failed", "order_id", order.ID, "status", target, "error", err)
		return nil, fmt.Errorf("%w %s: %w", ErrOrderUpdate, order.ID, err)
	}

	order.Status = target
	order.UpdatedAt = now
	if update.PaidAt != nil {
		order.PaidAt = update.PaidAt
	}
	out.Applied = true
	out.EventType = m.EventType
	log.Infow("order_reconciled", "order_id", order.ID, "from", out.PreviousStatus, "to", target, "event", m.EventType)
	return out, nil
}
