package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/app/service/webhook"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/platform/kafka"
	"github.com/fatflowers/payrecon/internal/platform/mercadopago"
	"github.com/fatflowers/payrecon/internal/platform/redislock"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/retry"
	"github.com/fatflowers/payrecon/pkg/tracing"
)

var (
	ErrPaymentIDMissing    = errors.New("payment id not provided")
	ErrOrderNotFound       = errors.New("order not found")
	ErrIntegrationNotFound = errors.New("mercadopago integration not found")
	ErrAccessTokenMissing  = errors.New("mercadopago access token not configured")
	ErrPaymentFetch        = errors.New("failed to fetch payment status")
	ErrOrderUpdate         = errors.New("failed to update order")
)

// Ignorable reports errors that mean there is nothing to do for the notification.
func Ignorable(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

type PaymentFetcher interface {
	FetchPaymentStatus(ctx context.Context, paymentID, accessToken string) (*mercadopago.FetchResult, error)
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, req webhook.DispatchRequest) *webhook.DispatchReport
}

// Result is the outcome of reconciling one payment.
type Result struct {
	PaymentID       string                  `json:"payment_id"`
	OrderID         string                  `json:"order_id"`
	ProcessorStatus string                  `json:"processor_status"`
	Outcome         *Outcome                `json:"outcome"`
	Dispatch        *webhook.DispatchReport `json:"dispatch,omitempty"`
}

// Service runs fetch, map, reconcile and fan-out for one processor payment.
type Service struct {
	orders       store.OrderStore
	integrations store.IntegrationStore
	fetcher      PaymentFetcher
	reconciler   *Reconciler
	dispatcher   EventDispatcher
	publisher    kafka.Publisher
	locker       redislock.Locker
	lockTTL      time.Duration
	lockWait     time.Duration
	now          func() time.Time
	log          *zap.SugaredLogger
	metrics      *metrics.Business
}

func NewService(
	cfg *config.Config,
	orders store.OrderStore,
	integrations store.IntegrationStore,
	fetcher PaymentFetcher,
	reconciler *Reconciler,
	dispatcher EventDispatcher,
	publisher kafka.Publisher,
	locker redislock.Locker,
	log *zap.SugaredLogger,
	m *metrics.Business,
) *Service {
	return &Service{
		orders:       orders,
		integrations: integrations,
		fetcher:      fetcher,
		reconciler:   reconciler,
		dispatcher:   dispatcher,
		publisher:    publisher,
		locker:       locker,
		lockTTL:      cfg.Redis.LockTTL,
		lockWait:     cfg.Redis.LockWait,
		now:          time.Now,
		log:          log,
		metrics:      m,
	}
}

// ReconcilePayment brings the order owning paymentID in line with the processor.
// ErrOrderNotFound is returned for payments that belong to no order; see Ignorable.
func (s *Service) ReconcilePayment(ctx context.Context, paymentID string) (res *Result, err error) {
	if paymentID == "" {
		return nil, ErrPaymentIDMissing
	}
	ctx, span := tracing.Tracer("reconcile").Start(ctx, "reconcile.payment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	start := time.Now()
	log := logctx.FromCtx(ctx, s.log).With("payment_id", paymentID)
	defer func() {
		outcome := "ok"
		switch {
		case Ignorable(err):
			outcome = "ignored"
		case err != nil:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.metrics.ObserveProcess("reconcile_payment", outcome, start)
	}()

	release, err := s.lock(ctx, paymentID, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			log.Warnw("payment_lock_release_failed", "error", rerr)
		}
	}()

	order, err := s.orders.FindByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Errorw("order_lookup_failed", "error", err)
		} else {
			log.Infow("order_not_found")
		}
		return nil, fmt.Errorf("%w for payment %s: %w", ErrOrderNotFound, paymentID, err)
	}
	log = log.With("order_id", order.ID)
	span.SetAttributes(attribute.String("order.id", order.ID))

	token, err := s.accessToken(ctx, order.VendorID, log)
	if err != nil {
		return nil, err
	}

	fetched, err := s.fetcher.FetchPaymentStatus(ctx, paymentID, token)
	if err != nil {
		log.Errorw("payment_fetch_failed", "error", err)
		return nil, fmt.Errorf("%w %s: %w", ErrPaymentFetch, paymentID, err)
	}
	if !fetched.OK {
		log.Errorw("payment_fetch_failed", "result", fetched.String())
		return nil, fmt.Errorf("%w %s: %s", ErrPaymentFetch, paymentID, fetched)
	}

	res = &Result{PaymentID: paymentID, OrderID: order.ID, ProcessorStatus: fetched.Payment.Status}
	mapping := MapStatus(fetched.Payment.Status)
	if !mapping.Known() {
		log.Warnw("payment_status_unmapped", "processor_status", fetched.Payment.Status)
	}

	res.Outcome, err = s.reconciler.Reconcile(ctx, order, mapping)
	if err != nil {
		return nil, err
	}
	if !res.Outcome.Applied || res.Outcome.EventType == "" {
		return res, nil
	}

	res.Dispatch = s.dispatcher.Dispatch(ctx, webhook.DispatchRequest{
		VendorID:  order.VendorID,
		EventType: res.Outcome.EventType,
		Order:     order,
		PaymentID: paymentID,
	})
	if perr := s.publisher.PublishOrderStatusChanged(ctx, kafka.OrderStatusEvent{
		OrderID:        order.ID,
		VendorID:       order.VendorID,
		PaymentID:      paymentID,
		PreviousStatus: res.Outcome.PreviousStatus,
		Status:         res.Outcome.Status,
		Event:          res.Outcome.EventType,
		OccurredAt:     order.UpdatedAt,
	}); perr != nil {
		log.Errorw("order_event_publish_failed", "error", perr)
	}
	return res, nil
}

// lock serializes concurrent notifications for the same payment. Lock backend errors
// other than contention fall through unlocked.
// lock serialises work on one payment when it can. A busy or unreachable lock falls
// through to an unlocked run so the notification is never dropped.
func (s *Service) lock(ctx context.Context, paymentID string, log *zap.SugaredLogger) (redislock.ReleaseFunc, error) {
	release, err := redislock.AcquireWithin(ctx, s.locker, redislock.PaymentKey(paymentID), s.lockTTL, s.lockWait)
	switch {
	case err == nil:
		return release, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, redislock.ErrNotAcquired) && errors.Is(err, retry.ErrExhausted):
		log.Warnw("payment_lock_busy", "wait", s.lockWait)
	default:
		log.Warnw("payment_lock_unavailable", "error", err)
	}
	return func(context.Context) error { return nil }, nil
}

func (s *Service) accessToken(ctx context.Context, vendorID string, log *zap.SugaredLogger) (string, error) {
	integ, err := s.integrations.FindActive(ctx, vendorID, models.IntegrationTypeMercadoPago)
	if err != nil {
		log.Errorw("integration_lookup_failed", "vendor_id", vendorID, "error", err)
		return "", fmt.Errorf("%w for vendor %s: %w", ErrIntegrationNotFound, vendorID, err)
	}
	cfg := integ.Config.Data()
	if cfg.AccessToken == "" {
		log.Errorw("integration_token_missing", "vendor_id", vendorID, "integration_id", integ.ID)
		return "", fmt.Errorf("%w for vendor %s", ErrAccessTokenMissing, vendorID)
	}
	mode := "production"
	if cfg.IsTest {
		mode = "sandbox"
	}
	log.Infow("integration_loaded", "vendor_id", vendorID, "mode", mode)
	return cfg.AccessToken, nil
}

// Pending sweep results.
const (
	PendingUpdated = "updated"
	PendingSkipped = "skipped"
	PendingError   = "error"
)

type PendingResult struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Result    string `json:"result"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReconcilePending re-checks PENDING orders older than olderThan, for notifications the
// processor never delivered. Per-order failures are reported, not returned.
func (s *Service) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) ([]PendingResult, error) {
	log := logctx.FromCtx(ctx, s.log)
	orders, err := s.orders.ListPending(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	log.Infow("pending_sweep_started", "orders", len(orders), "older_than", olderThan)

	results := make([]PendingResult, 0, len(orders))
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		pr := PendingResult{OrderID: o.ID}
		if o.GatewayPaymentID == nil || *o.GatewayPaymentID == "" {
			pr.Result = PendingSkipped
			results = append(results, pr)
			continue
		}
		pr.PaymentID = *o.GatewayPaymentID

		res, err := s.ReconcilePayment(ctx, pr.PaymentID)
		switch {
		case err != nil:
			pr.Result = PendingError
			pr.Error = err.Error()
		case res.Outcome.Changed():
			pr.Result = PendingUpdated
			pr.Status = string(res.Outcome.Status)
		default:
			pr.Result = PendingSkipped
			pr.Status = string(res.Outcome.Status)
		}
		results = append(results, pr)
	}
	log.Infow("pending_sweep_finished", "orders", len(results))
	return results, nil
}
