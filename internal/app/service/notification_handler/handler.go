package notification_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/payrecon/internal/app/service/reconcile"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/platform/mercadopago"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/metrics"
)

const ProviderMercadoPago = "mercadopago"

type PaymentReconciler interface {
	ReconcilePayment(ctx context.Context, paymentID string) (*reconcile.Result, error)
}

type AuditLog interface {
	Save(ctx context.Context, entry *models.PaymentNotificationLog)
}

// Request is the raw inbound notification.
type Request struct {
	Body      []byte
	Query     url.Values
	Signature string
	RequestID string
}

type ResultKind string

const (
	ResultProcessed ResultKind = "processed"
	ResultIgnored   ResultKind = "ignored"
	ResultFailed    ResultKind = "failed"
)

// Result is what the endpoint acknowledges. Message is safe to return to the caller.
type Result struct {
	Kind    ResultKind
	OrderID string
	Message string
	Err     error
}

const (
	msgTypeIgnored   = "notification type ignored"
	msgOrderNotFound = "order not found"
	msgInternal      = "internal error"
)

// publicErrors are returned verbatim; anything else is reported as msgInternal.
var publicErrors = []error{
	reconcile.ErrPaymentIDMissing,
	reconcile.ErrIntegrationNotFound,
	reconcile.ErrAccessTokenMissing,
	reconcile.ErrPaymentFetch,
	reconcile.ErrOrderUpdate,
	ErrInvalidBody,
}

func publicMessage(err error) string {
	var sigErr *mercadopago.SignatureError
	if errors.As(err, &sigErr) {
		return "invalid signature: " + sigErr.Code
	}
	for _, e := range publicErrors {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return msgInternal
}

type NotificationHandler struct {
	cfg        *config.Config
	notifSvc   AuditLog
	reconciler PaymentReconciler
	now        func() time.Time
	metrics    *metrics.Business
	Logger     *zap.SugaredLogger
}

func NewNotificationHandler(cfg *config.Config, notif AuditLog, rec PaymentReconciler, log *zap.SugaredLogger, m *metrics.Business) *NotificationHandler {
	return &NotificationHandler{cfg: cfg, notifSvc: notif, reconciler: rec, now: time.Now, metrics: m, Logger: log}
}

// HandleMercadoPago processes one notification. It never returns an error; failures
// are described by the Result.
func (h *NotificationHandler) HandleMercadoPago(ctx context.Context, req Request) (res *Result) {
	log := logctx.FromCtx(ctx, h.Logger)
	traceID := logctx.TraceID(ctx)
	data := auditData(req.Body)

	n, err := ParseNotification(req.Body, req.Query)
	if n == nil {
		n = &Notification{}
	}

	h.notifSvc.Save(ctx, &models.PaymentNotificationLog{
		Provider:         ProviderMercadoPago,
		NotificationType: n.Type,
		TraceID:          traceID,
		PaymentID:        n.DataID,
		NotificationTime: h.now(),
		Data:             data,
		Status:           models.PaymentNotificationLogStatusReceived,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("mercadopago_notification_panic", "panic", r)
			res = failed(fmt.Errorf("panic: %v", r))
		}
		h.metrics.Notification(string(res.Kind))
		h.notifSvc.Save(ctx, &models.PaymentNotificationLog{
			Provider:         ProviderMercadoPago,
			NotificationType: n.Type,
			TraceID:          traceID,
			PaymentID:        n.DataID,
			OrderID:          lo.EmptyableToPtr(res.OrderID),
			NotificationTime: h.now(),
			Data:             data,
			Result:           resultJSON(res),
			Status:           logStatus(res.Kind),
		})
	}()

	if err != nil {
		log.Warnw("mercadopago_notification_invalid", "error", err)
		return failed(err)
	}
	log = log.With("type", n.Type, "data_id", n.DataID, "action", n.Action)
	log.Infow("mercadopago_notification_received", "live_mode", n.LiveMode)

	if !n.IsPayment() {
		return &Result{Kind: ResultIgnored, Message: msgTypeIgnored}
	}
	if n.DataID == "" {
		return failed(reconcile.ErrPaymentIDMissing)
	}
	if err := h.verifySignature(req, n, log); err != nil {
		return failed(err)
	}

	r, err := h.reconciler.ReconcilePayment(ctx, n.DataID)
	switch {
	case reconcile.Ignorable(err):
		log.Infow("mercadopago_notification_ignored", "reason", err)
		return &Result{Kind: ResultIgnored, Message: msgOrderNotFound}
	case err != nil:
		log.Errorw("mercadopago_notification_failed", "error", err)
		return failed(err)
	}
	log.Infow("mercadopago_notification_handled", "order_id", r.OrderID, "status", r.Outcome.Status, "applied", r.Outcome.Applied)
	return &Result{Kind: ResultProcessed, OrderID: r.OrderID}
}

func (h *NotificationHandler) verifySignature(req Request, n *Notification, log *zap.SugaredLogger) error {
	secret := h.cfg.MercadoPago.WebhookSecret
	if secret == "" {
		log.Warnw("mercadopago_signature_check_disabled")
		return nil
	}
	if err := mercadopago.VerifyNotification(secret, req.Signature, req.RequestID, n.DataID, h.now()); err != nil {
		log.Warnw("mercadopago_signature_rejected", "error", err)
		return err
	}
	return nil
}

func failed(err error) *Result {
	return &Result{Kind: ResultFailed, Message: publicMessage(err), Err: err}
}

func logStatus(k ResultKind) models.PaymentNotificationLogStatus {
	switch k {
	case ResultProcessed:
		return models.PaymentNotificationLogStatusHandled
	case ResultIgnored:
		return models.PaymentNotificationLogStatusIgnored
	default:
		return models.PaymentNotificationLogStatusHandleFailed
	}
}

// auditData keeps the body as jsonb, wrapping bodies that are not valid JSON.
func auditData(body []byte) datatypes.JSON {
	if json.Valid(body) {
		return datatypes.JSON(body)
	}
	b, _ := json.Marshal(map[string]string{"raw": string(body)})
	return datatypes.JSON(b)
}

func resultJSON(res *Result) *datatypes.JSON {
	m := map[string]any{"kind": res.Kind}
	if res.OrderID != "" {
		m["order_id"] = res.OrderID
	}
	if res.Message != "" {
		m["message"] = res.Message
	}
	if res.Err != nil {
		m["error"] = fmt.Sprint(res.Err)
	}
	b, _ := json.Marshal(m)
	j := datatypes.JSON(b)
	return &j
}
