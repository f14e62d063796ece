package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/types"
)

// Store implements every store interface on top of GORM.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Where("gateway_payment_id = ?", paymentID).Take(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) UpdateStatus(ctx context.Context, orderID string, update StatusUpdate) error {
	values := map[string]any{
		"status":     update.Status,
		"updated_at": update.UpdatedAt,
	}
	if update.PaidAt != nil {
		values["paid_at"] = *update.PaidAt
	}
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Order, error) {
	var rows []*models.Order
	err := s.db.WithContext(ctx).
		Where("status = ?", types.OrderStatusPending).
		Where("gateway_payment_id IS NOT NULL AND gateway_payment_id <> ''").
		Where("created_at < ?", createdBefore).
		Order("created_at").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}
	return rows, nil
}

func (s *Store) FindActive(ctx context.Context, vendorID, integrationType string) (*models.VendorIntegration, error) {
	var vi models.VendorIntegration
	err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND integration_type = ? AND active = ?", vendorID, integrationType, true).
		Take(&vi).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &vi, nil
}

func (s *Store) ListActiveForEvent(ctx context.Context, vendorID string, event types.EventType) ([]*models.OutboundWebhook, error) {
	contains, err := json.Marshal([]string{string(event)})
	if err != nil {
		return nil, err
	}
	var rows []*models.OutboundWebhook
	err = s.db.WithContext(ctx).
		Where("vendor_id = ? AND active = ?", vendorID, true).
		Where("events @> ?::jsonb", string(contains)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return rows, nil
}

func (s *Store) GetWebhook(ctx context.Context, id string) (*models.OutboundWebhook, error) {
	var w models.OutboundWebhook
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&w).Error; err != nil {
		return nil, notFound(err)
	}
	return &w, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) CreateDelivery(ctx context.Context, d *models.WebhookDelivery) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *Store) GetDelivery(ctx context.Context, id string) (*models.WebhookDelivery, error) {
	var d models.WebhookDelivery
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *Store) Claim(ctx context.Context, previousID, nextID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.WebhookDelivery{}).
		Where("id = ? AND superseded_by IS NULL", previousID).
		Updates(map[string]any{"superseded_by": nextID, "next_retry_at": nil})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim delivery %s: %w", previousID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*models.WebhookDelivery, error) {
	var rows []*models.WebhookDelivery
	err := s.db.WithContext(ctx).
		Where("status = ?", types.DeliveryStatusFailed).
		Where("superseded_by IS NULL").
		Where("attempts < ?", maxAttempts).
		Where("next_retry_at IS NOT NULL AND next_retry_at <= ?", now).
		Order("next_retry_at").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due deliveries: %w", err)
	}
	return rows, nil
}

// ScanDeliveries implements paginated admin listing with filters.
func (s *Store) ScanDeliveries(ctx context.Context, req *ScanDeliveriesRequest) (*ScanDeliveriesResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFields(req.Filters, DeliveryFilterFields); err != nil {
		return nil, err
	}
	if req.SortBy != "" {
		if err := types.ValidateFields([]*types.CommonFilter{{Field: req.SortBy}}, DeliveryFilterFields); err != nil {
			return nil, err
		}
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.WebhookDelivery{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count deliveries: %w", err)
	}

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})

	var rows []*models.WebhookDelivery
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return &ScanDeliveriesResponse{Items: rows, Total: total}, nil
}

func (s *Store) CreateNotificationLog(ctx context.Context, l *models.PaymentNotificationLog) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
