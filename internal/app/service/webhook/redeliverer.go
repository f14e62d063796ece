package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/tool"
	"github.com/fatflowers/payrecon/pkg/types"
)

var (
	ErrDeliveryNotFound   = errors.New("delivery not found")
	ErrAlreadyDelivered   = errors.New("delivery already succeeded")
	ErrAttemptsExhausted  = errors.New("delivery attempts exhausted")
	ErrDeliverySuperseded = errors.New("delivery already redelivered")
	ErrWebhookInactive    = errors.New("webhook missing or inactive")
)

// RedeliveryReport summarizes one RedeliverDue run.
type RedeliveryReport struct {
	Scanned   int               `json:"scanned"`
	Delivered int               `json:"delivered"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Outcomes  []DeliveryOutcome `json:"outcomes"`
}

// Redeliverer re-sends failed deliveries. Each attempt claims the previous row by
// linking it to the new row id, then appends the new row with the attempt count
// incremented.
type Redeliverer struct {
	webhooks   store.WebhookStore
	deliveries store.DeliveryStore
	sender     *sender
	log        *zap.SugaredLogger
}

func NewRedeliverer(cfg *config.Config, webhooks store.WebhookStore, deliveries store.DeliveryStore, log *zap.SugaredLogger, m *metrics.Business) *Redeliverer {
	return &Redeliverer{
		webhooks:   webhooks,
		deliveries: deliveries,
		sender: newSender(deliveries, senderOptions{
			timeout:       cfg.Webhooks.Timeout,
			requireSecret: cfg.Webhooks.RequireSecret,
			maxAttempts:   cfg.Webhooks.MaxAttempts,
		}, log, m),
		log: log,
	}
}

// Redeliver re-sends the stored payload of deliveryID, signed with the webhook's
// current secret.
func (r *Redeliverer) Redeliver(ctx context.Context, deliveryID string) (*DeliveryOutcome, error) {
	d, err := r.deliveries.GetDelivery(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("load delivery %s: %w", deliveryID, err)
	}
	return r.redeliver(ctx, d)
}

func (r *Redeliverer) redeliver(ctx context.Context, d *models.WebhookDelivery) (*DeliveryOutcome, error) {
	switch {
	case d.Status == types.DeliveryStatusSuccess:
		return nil, ErrAlreadyDelivered
	case d.SupersededBy != nil:
		return nil, ErrDeliverySuperseded
	case d.Attempts >= r.sender.maxAttempts:
		return nil, ErrAttemptsExhausted
	}

	hook, err := r.webhooks.GetWebhook(ctx, d.WebhookID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load webhook %s: %w", d.WebhookID, err)
	}
	if hook == nil || !hook.Active {
		return nil, ErrWebhookInactive
	}

	// claim before sending so concurrent redeliveries of d post once
	nextID := tool.GenerateUUIDV7()
	claimed, err := r.deliveries.Claim(ctx, d.ID, nextID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrDeliverySuperseded
	}

	out := r.sender.send(ctx, attempt{
		hook:      hook,
		orderID:   d.OrderID,
		productID: d.ProductID,
		event:     d.EventType,
		body:      []byte(d.Payload),
		number:    d.Attempts + 1,
		id:        nextID,
	})
	return &out, nil
}

// RedeliverDue re-sends up to limit failed deliveries whose backoff elapsed by now.
func (r *Redeliverer) RedeliverDue(ctx context.Context, now time.Time, limit int) (*RedeliveryReport, error) {
	if limit <= 0 {
		limit = 50
	}
	due, err := r.deliveries.ListDue(ctx, now, r.sender.maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	log := logctx.FromCtx(ctx, r.log)
	report := &RedeliveryReport{Scanned: len(due)}
	for _, d := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out, err := r.redeliver(ctx, d)
		if err != nil {
			report.Skipped++
			log.Infow("webhook_redelivery_skipped", "delivery_id", d.ID, "reason", err)
			continue
		}
		report.Outcomes = append(report.Outcomes, *out)
		if out.Delivered {
			report.Delivered++
		} else {
			report.Failed++
		}
	}
	log.Infow("webhook_redelivery_finished", "scanned", report.Scanned, "delivered", report.Delivered, "failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}

// startRedeliveryLoop runs RedeliverDue every webhooks.redeliver_interval while the
// app is running. A zero interval disables it.
func startRedeliveryLoop(lc fx.Lifecycle, cfg *config.Config, r *Redeliverer, log *zap.SugaredLogger) {
	interval := cfg.Webhooks.RedeliverInterval
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Infow("webhook redelivery loop started", "interval", interval)
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case now := <-ticker.C:
						runCtx := logctx.WithLogger(ctx, log.With("trace_id", tool.GenerateUUIDV7(), "job", "redeliver"))
						if _, err := r.RedeliverDue(runCtx, now, cfg.Webhooks.RedeliverBatch); err != nil && !errors.Is(err, context.Canceled) {
							log.Errorw("webhook redelivery run failed", "err", err)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
