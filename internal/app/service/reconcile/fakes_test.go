package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/app/service/webhook"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/internal/platform/kafka"
	"github.com/fatflowers/payrecon/internal/platform/mercadopago"
	"github.com/fatflowers/payrecon/internal/platform/redislock"
	"github.com/fatflowers/payrecon/pkg/types"
)

type memOrders struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	updates   []store.StatusUpdate
	findErr   error
	updateErr error
}

func newMemOrders(orders ...*models.Order) *memOrders {
	m := &memOrders{orders: map[string]*models.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) FindByGatewayPaymentID(_ context.Context, paymentID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, o := range m.orders {
		if o.GatewayPaymentID != nil && *o.GatewayPaymentID == paymentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memOrders) UpdateStatus(_ context.Context, orderID string, u store.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	o, ok := m.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	m.updates = append(m.updates, u)
	o.Status = u.Status
	o.UpdatedAt = u.UpdatedAt
	if u.PaidAt != nil {
		o.PaidAt = u.PaidAt
	}
	return nil
}

func (m *memOrders) ListPending(_ context.Context, createdBefore time.Time, limit int) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.Status == types.OrderStatusPending && o.CreatedAt.Before(createdBefore) {
			cp := *o
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrders) get(id string) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.orders[id]
	return &cp
}

type memIntegrations map[string]*models.VendorIntegration

func (m memIntegrations) FindActive(_ context.Context, vendorID, integrationType string) (*models.VendorIntegration, error) {
	if i, ok := m[vendorID]; ok && i.Active && i.IntegrationType == integrationType {
		return i, nil
	}
	return nil, store.ErrNotFound
}

type fakeFetcher struct {
	results map[string]*mercadopago.FetchResult
	err     error
	calls   []string
	tokens  []string
}

func (f *fakeFetcher) FetchPaymentStatus(_ context.Context, paymentID, accessToken string) (*mercadopago.FetchResult, error) {
	f.calls = append(f.calls, paymentID)
	f.tokens = append(f.tokens, accessToken)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[paymentID]; ok {
		return r, nil
	}
	return mercadopago.NotFoundAfterRetries(3), nil
}

func approved(status string) *mercadopago.FetchResult {
	return &mercadopago.FetchResult{OK: true, Status: 200, Payment: &mercadopago.Payment{Status: status}}
}

type fakeDispatcher struct {
	requests []webhook.DispatchRequest
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req webhook.DispatchRequest) *webhook.DispatchReport {
	f.requests = append(f.requests, req)
	return &webhook.DispatchReport{Event: req.EventType, OrderID: req.Order.ID}
}

type fakePublisher struct {
	events []kafka.OrderStatusEvent
	err    error
}

func (f *fakePublisher) PublishOrderStatusChanged(_ context.Context, e kafka.OrderStatusEvent) error {
	f.events = append(f.events, e)
	return f.err
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (redislock.ReleaseFunc, error) {
	return nil, redislock.ErrNotAcquired
}

type brokenLocker struct{}

func (brokenLocker) Acquire(context.Context, string, time.Duration) (redislock.ReleaseFunc, error) {
	return nil, errors.New("dial tcp: connection refused")
}
