package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/types"
)

type memWebhooks struct {
	hooks   []*models.OutboundWebhook
	listErr error
}

func (m *memWebhooks) ListActiveForEvent(_ context.Context, vendorID string, event types.EventType) ([]*models.OutboundWebhook, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.OutboundWebhook
	for _, h := range m.hooks {
		if h.VendorID == vendorID && h.Subscribes(event) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memWebhooks) GetWebhook(_ context.Context, id string) (*models.OutboundWebhook, error) {
	for _, h := range m.hooks {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, store.ErrNotFound
}

type memProducts map[string]*models.Product

func (m memProducts) GetProduct(_ context.Context, id string) (*models.Product, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

type memDeliveries struct {
	mu        sync.Mutex
	rows      []*models.WebhookDelivery
	createErr error
}

func (m *memDeliveries) CreateDelivery(_ context.Context, d *models.WebhookDelivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.rows = append(m.rows, d)
	return nil
}

func (m *memDeliveries) GetDelivery(_ context.Context, id string) (*models.WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.rows {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memDeliveries) Claim(_ context.Context, previousID, nextID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.rows {
		if d.ID == previousID {
			if d.SupersededBy != nil {
				return false, nil
			}
			d.SupersededBy = &nextID
			d.NextRetryAt = nil
			return true, nil
		}
	}
	return false, errors.New("previous delivery missing")
}

func (m *memDeliveries) ListDue(_ context.Context, now time.Time, maxAttempts, limit int) ([]*models.WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.WebhookDelivery
	for _, d := range m.rows {
		if d.Status == types.DeliveryStatusFailed && d.SupersededBy == nil && d.Attempts < maxAttempts &&
			d.NextRetryAt != nil && !d.NextRetryAt.After(now) && len(out) < limit {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memDeliveries) ScanDeliveries(context.Context, *store.ScanDeliveriesRequest) (*store.ScanDeliveriesResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &store.ScanDeliveriesResponse{Items: m.rows, Total: int64(len(m.rows))}, nil
}

func (m *memDeliveries) byWebhook(id string) []*models.WebhookDelivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.WebhookDelivery
	for _, d := range m.rows {
		if d.WebhookID == id {
			out = append(out, d)
		}
	}
	return out
}
