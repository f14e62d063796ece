package webhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/tracing"
	"github.com/fatflowers/payrecon/pkg/types"
)

// DispatchRequest describes one event to fan out.
type DispatchRequest struct {
	VendorID  string
	EventType types.EventType
	// Order is the reconciled order snapshot.
	Order     *models.Order
	PaymentID string
}

// DispatchReport lists one outcome per matching subscriber. Err is set when the
// subscriber list itself could not be loaded.
type DispatchReport struct {
	Event    types.EventType   `json:"event"`
	OrderID  string            `json:"order_id"`
	Outcomes []DeliveryOutcome `json:"outcomes"`
	Err      error             `json:"-"`
}

func (r *DispatchReport) Delivered() int {
	return lo.CountBy(r.Outcomes, func(o DeliveryOutcome) bool { return o.Delivered })
}

func (r *DispatchReport) Failed() int {
	return len(r.Outcomes) - r.Delivered()
}

// Dispatcher delivers an event to every active subscriber of the vendor.
type Dispatcher struct {
	webhooks store.WebhookStore
	products store.ProductStore
	sender   *sender
	log      *zap.SugaredLogger
}

func NewDispatcher(cfg *config.Config, webhooks store.WebhookStore, products store.ProductStore, deliveries store.DeliveryStore, log *zap.SugaredLogger, m *metrics.Business) *Dispatcher {
	return &Dispatcher{
		webhooks: webhooks,
		products: products,
		sender: newSender(deliveries, senderOptions{
			timeout:       cfg.Webhooks.Timeout,
			requireSecret: cfg.Webhooks.RequireSecret,
			maxAttempts:   cfg.Webhooks.MaxAttempts,
		}, log, m),
		log: log,
	}
}

// Dispatch never fails: subscriber errors are recorded as failed deliveries and
// infrastructure errors are reported in DispatchReport.Err.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) *DispatchReport {
	ctx, span := tracing.Tracer("webhook").Start(ctx, "webhook.dispatch")
	defer span.End()

	report := &DispatchReport{Event: req.EventType}
	if req.Order == nil {
		report.Err = errors.New("dispatch without order")
		return report
	}
	report.OrderID = req.Order.ID
	span.SetAttributes(attribute.String("order.id", req.Order.ID), attribute.String("event", string(req.EventType)))
	log := logctx.FromCtx(ctx, d.log).With("order_id", req.Order.ID, "event", req.EventType)

	hooks, err := d.webhooks.ListActiveForEvent(ctx, req.VendorID, req.EventType)
	if err != nil {
		log.Errorw("webhook_list_failed", "vendor_id", req.VendorID, "err", err)
		report.Err = err
		return report
	}
	// the store filters already; this guards against stores that do not
	hooks = lo.Filter(hooks, func(h *models.OutboundWebhook, _ int) bool { return h.Subscribes(req.EventType) })
	if len(hooks) == 0 {
		log.Infow("webhook_no_subscribers", "vendor_id", req.VendorID)
		return report
	}

	product := d.loadProduct(ctx, req.Order, log)
	payload := BuildPayload(req.EventType, req.Order, req.PaymentID, product, d.sender.now())
	body, err := json.Marshal(payload)
	if err != nil {
		log.Errorw("webhook_payload_encode_failed", "err", err)
		report.Err = err
		return report
	}

	log.Infow("webhook_dispatch_started", "subscribers", len(hooks))
	for _, hook := range hooks {
		report.Outcomes = append(report.Outcomes, d.sender.send(ctx, attempt{
			hook:      hook,
			orderID:   req.Order.ID,
			productID: req.Order.ProductID,
			event:     req.EventType,
			body:      body,
			number:    1,
		}))
	}
	span.SetAttributes(attribute.Int("deliveries.ok", report.Delivered()), attribute.Int("deliveries.failed", report.Failed()))
	log.Infow("webhook_dispatch_finished", "delivered", report.Delivered(), "failed", report.Failed())
	return report
}

func (d *Dispatcher) loadProduct(ctx context.Context, order *models.Order, log *zap.SugaredLogger) *models.Product {
	if order.ProductID == nil || *order.ProductID == "" {
		return nil
	}
	p, err := d.products.GetProduct(ctx, *order.ProductID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warnw("webhook_product_lookup_failed", "product_id", *order.ProductID, "err", err)
		}
		return nil
	}
	return p
}
