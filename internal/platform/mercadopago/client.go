package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/retry"
	"github.com/fatflowers/payrecon/pkg/tracing"
)

const (
	DefaultBaseURL     = "https://api.mercadopago.com"
	DefaultMaxAttempts = 3
	// maxBodyBytes bounds how much of a payments API response is read.
	maxBodyBytes = 1 << 20
)

// errNotYetVisible marks a 404, which is retried: notifications can arrive before the
// payment is queryable.
var errNotYetVisible = errors.New("payment not visible yet")

// errUpstream marks a non-404 error status, which ends the lookup.
var errUpstream = errors.New("payments api error status")

// Client queries the Mercado Pago payments API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	backoff     retry.BackoffFunc
	sleep       retry.SleepFunc
	log         *zap.SugaredLogger
	metrics     *metrics.Business
}

type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(s retry.SleepFunc) Option { return func(c *Client) { c.sleep = s } }

func WithMaxAttempts(n int) Option { return func(c *Client) { c.maxAttempts = n } }

func WithMetrics(m *metrics.Business) Option { return func(c *Client) { c.metrics = m } }

// NewClient builds a client for baseURL; an empty baseURL targets the public API.
func NewClient(baseURL string, timeout time.Duration, log *zap.SugaredLogger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: DefaultMaxAttempts,
		backoff:     retry.Linear(2 * time.Second),
		sleep:       retry.SleepContext,
		log:         log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewFromConfig is the fx constructor.
func NewFromConfig(cfg *config.Config, log *zap.SugaredLogger, m *metrics.Business) *Client {
	return NewClient(cfg.MercadoPago.BaseURL, cfg.MercadoPago.RequestTimeout, log,
		WithMaxAttempts(cfg.MercadoPago.MaxFetchAttempts),
		WithMetrics(m),
	)
}

// FetchPaymentStatus looks the payment up, retrying 404 answers with linear backoff
// (2s, 4s, ...) up to the configured number of attempts. Non-2xx answers are returned
// as a failed FetchResult; only transport or decoding problems return an error.
func (c *Client) FetchPaymentStatus(ctx context.Context, paymentID, accessToken string) (*FetchResult, error) {
	ctx, span := tracing.Tracer("mercadopago").Start(ctx, "mercadopago.fetch_payment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	log := logctx.FromCtx(ctx, c.log)
	var result *FetchResult
	attempts := 0

	policy := retry.Policy{
		MaxAttempts: c.maxAttempts,
		Backoff:     c.backoff,
		Sleep:       c.sleep,
		Retryable:   func(err error) bool { return errors.Is(err, errNotYetVisible) },
	}
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		log.Infow("mercadopago_fetch_payment", "payment_id", paymentID, "attempt", attempt, "max_attempts", policy.MaxAttempts)

		status, body, err := c.get(ctx, paymentID, accessToken)
		if err != nil {
			return err
		}
		c.metrics.ProcessorFetch(status)

		switch {
		case status >= 200 && status < 300:
			p := decodePayment(body)
			if verr := p.validate(); verr != nil {
				return fmt.Errorf("decode payment %s: %w", paymentID, verr)
			}
			result = &FetchResult{OK: true, Status: status, Payment: p, Raw: rawJSON(body), Attempts: attempt}
			return nil
		case status == http.StatusNotFound:
			log.Infow("mercadopago_payment_not_found", "payment_id", paymentID, "attempt", attempt)
			return errNotYetVisible
		default:
			result = &FetchResult{Status: status, Payment: decodePayment(body), Raw: rawJSON(body), Attempts: attempt}
			return errUpstream
		}
	})

	switch {
	case err == nil:
		span.SetAttributes(attribute.String("payment.status", result.Payment.Status))
		return result, nil
	case errors.Is(err, errUpstream):
		span.SetStatus(codes.Error, result.String())
		return result, nil
	case errors.Is(err, retry.ErrExhausted) && errors.Is(err, errNotYetVisible):
		span.SetStatus(codes.Error, "not found after retries")
		return NotFoundAfterRetries(attempts), nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
}

func (c *Client) get(ctx context.Context, paymentID, accessToken string) (int, []byte, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, url.PathEscape(paymentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build payments request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("payments request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read payments response: %w", err)
	}
	return resp.StatusCode, body, nil
}
