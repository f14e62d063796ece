package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/retry"
	"github.com/fatflowers/payrecon/pkg/tool"
	"github.com/fatflowers/payrecon/pkg/types"
)

const (
	HeaderSignature  = "X-Rise-Signature"
	HeaderEvent      = "X-Rise-Event"
	HeaderDeliveryID = "X-Rise-Delivery-ID"
	UserAgent        = "RiseCheckout-Webhook/1.0"

	reasonSecretMissing = "webhook secret not configured"
)

// RedeliveryBackoff is the wait before redelivering after the n-th failed attempt.
var RedeliveryBackoff = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	1 * time.Hour,
	3 * time.Hour,
	8 * time.Hour,
	24 * time.Hour,
}

var errSecretMissing = errors.New(reasonSecretMissing)

// DeliveryOutcome is the result of one attempt to one subscriber.
type DeliveryOutcome struct {
	WebhookID      string `json:"webhook_id"`
	DeliveryID     string `json:"delivery_id"`
	Attempt        int    `json:"attempt"`
	Delivered      bool   `json:"delivered"`
	ResponseStatus int    `json:"response_status"`
	// Reason explains a failed attempt.
	Reason string `json:"reason,omitempty"`
	// RecordErr is set when the audit row could not be written.
	RecordErr error `json:"-"`
}

// attempt is what sender needs to deliver and record one request.
type attempt struct {
	hook      *models.OutboundWebhook
	orderID   string
	productID *string
	event     types.EventType
	body      []byte
	number    int
	// id is preassigned when the row was claimed before sending.
	id string
}

type senderOptions struct {
	timeout       time.Duration
	requireSecret bool
	maxAttempts   int
}

// sender posts one signed body and appends the matching WebhookDelivery row.
type sender struct {
	httpClient    *http.Client
	deliveries    store.DeliveryStore
	requireSecret bool
	maxAttempts   int
	backoff       retry.BackoffFunc
	now           func() time.Time
	log           *zap.SugaredLogger
	metrics       *metrics.Business
}

func newSender(deliveries store.DeliveryStore, opts senderOptions, log *zap.SugaredLogger, m *metrics.Business) *sender {
	if opts.timeout <= 0 {
		opts.timeout = 10 * time.Second
	}
	if opts.maxAttempts <= 0 {
		opts.maxAttempts = 5
	}
	return &sender{
		httpClient: &http.Client{
			Timeout: opts.timeout,
			// 3xx answers count as delivered, so they are recorded rather than followed.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		deliveries:    deliveries,
		requireSecret: opts.requireSecret,
		maxAttempts:   opts.maxAttempts,
		backoff:       retry.Table(RedeliveryBackoff),
		now:           time.Now,
		log:           log,
		metrics:       m,
	}
}

func (s *sender) send(ctx context.Context, a attempt) DeliveryOutcome {
	log := logctx.FromCtx(ctx, s.log)
	deliveryID := a.id
	if deliveryID == "" {
		deliveryID = tool.GenerateUUIDV7()
	}
	out := DeliveryOutcome{WebhookID: a.hook.ID, DeliveryID: deliveryID, Attempt: a.number}

	status, body, err := s.post(ctx, a, deliveryID)
	sentAt := s.now()
	switch {
	case err != nil:
		out.Reason = err.Error()
		body = err.Error()
	case status >= 200 && status < 400:
		out.Delivered = true
	default:
		out.Reason = fmt.Sprintf("subscriber answered %d", status)
	}
	out.ResponseStatus = status

	row := &models.WebhookDelivery{
		ID:             deliveryID,
		WebhookID:      a.hook.ID,
		OrderID:        a.orderID,
		ProductID:      a.productID,
		EventType:      a.event,
		Payload:        datatypes.JSON(a.body),
		Status:         types.DeliveryStatusFailed,
		ResponseStatus: status,
		ResponseBody:   models.TruncateResponseBody(body),
		Attempts:       a.number,
		LastAttemptAt:  sentAt,
	}
	if out.Delivered {
		row.Status = types.DeliveryStatusSuccess
	} else if a.number < s.maxAttempts {
		next := sentAt.Add(s.backoff(a.number))
		row.NextRetryAt = &next
	}

	out.RecordErr = s.deliveries.CreateDelivery(ctx, row)
	if out.RecordErr != nil {
		log.Errorw("webhook_delivery_record_failed", "webhook_id", a.hook.ID, "order_id", a.orderID, "delivery_id", deliveryID, "err", out.RecordErr)
	}

	s.metrics.WebhookDelivery(string(row.Status), string(a.event))
	log.Infow("webhook_delivered",
		"webhook_id", a.hook.ID,
		"webhook_name", lo.FromPtr(a.hook.Name),
		"order_id", a.orderID,
		"event", a.event,
		"attempt", a.number,
		"delivered", out.Delivered,
		"response_status", status,
		"reason", out.Reason,
	)
	return out
}

// post returns the response status and body, or an error when no response was
// obtained. A missing secret under require_secret counts as such an error.
func (s *sender) post(ctx context.Context, a attempt, deliveryID string) (int, string, error) {
	if a.hook.Secret == "" && s.requireSecret {
		return 0, "", errSecretMissing
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.hook.URL, bytes.NewReader(a.body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(HeaderSignature, Sign(a.body, a.hook.Secret))
	req.Header.Set(HeaderEvent, string(a.event))
	req.Header.Set(HeaderDeliveryID, deliveryID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	// read a little past the stored limit; multi-byte runes are cut after decoding
	raw, err := io.ReadAll(io.LimitReader(resp.Body, int64(models.MaxResponseBodyLength)*4))
	if err != nil {
		s.log.Warnw("webhook_response_read_failed", "webhook_id", a.hook.ID, "err", err)
	}
	return resp.StatusCode, string(raw), nil
}
