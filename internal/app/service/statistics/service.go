package statistics

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/types"
)

type StatisticType string

const (
	// Deliveries per day, labelled by status.
	StatisticTypeDailyDeliveryCount StatisticType = "daily_delivery_count"
	// Deliveries per event type: value succeeded, value2 failed.
	StatisticTypeDeliveryByEvent StatisticType = "delivery_by_event"
	// Daily success rate in basis points: value rate, value2 total, value3 succeeded.
	StatisticTypeDeliverySuccessRate StatisticType = "delivery_success_rate"
	// Inbound notifications per day, labelled by audit status.
	StatisticTypeDailyNotificationCount StatisticType = "daily_notification_count"
)

// Filter fields that only make sense for delivery statistics.
var deliveryOnlyFilters = []string{"webhook_id", "event_type", "order_id", "attempts", "response_status"}

var deliveryStatistics = []StatisticType{
	StatisticTypeDailyDeliveryCount,
	StatisticTypeDeliveryByEvent,
	StatisticTypeDeliverySuccessRate,
}

// AllowedFilterFields are the columns statistic filters may reference.
var AllowedFilterFields = append([]string{"created_at", "status"}, deliveryOnlyFilters...)

type DeliveryStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type DeliveryStatisticRequest struct {
	Filters   []*types.CommonFilter        `json:"filters"`
	DataItems []*DeliveryStatisticDataItem `json:"data_items"`
}

// GetFilters drops delivery-only filters for statistics that read other tables.
func (f *DeliveryStatisticRequest) GetFilters(statisticType StatisticType) *DeliveryStatisticRequest {
	if f == nil || len(f.Filters) == 0 || lo.Contains(deliveryStatistics, statisticType) {
		return f
	}
	return &DeliveryStatisticRequest{
		Filters: lo.Reject(f.Filters, func(filter *types.CommonFilter, _ int) bool {
			return lo.Contains(deliveryOnlyFilters, filter.Field)
		}),
	}
}

// Build composes the WHERE clause of the request filters.
func (f *DeliveryStatisticRequest) Build(builder clause.Builder) {
	if f == nil || len(f.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	types.FiltersAnd(f.Filters).Build(builder)
}

type DeliveryStatisticResponseDataItem struct {
	Date   string `json:"date,omitempty"`
	Label  string `json:"label,omitempty"`
	Value  int64  `json:"value"`
	Value2 int64  `json:"value2,omitempty"`
	Value3 int64  `json:"value3,omitempty"`
}

type DeliveryStatisticResponse struct {
	DataItems map[StatisticType][]DeliveryStatisticResponseDataItem `json:"data_items"`
}

// Service provides statistics operations
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) where(request *DeliveryStatisticRequest, t StatisticType) clause.Where {
	return clause.Where{Exprs: []clause.Expression{request.GetFilters(t)}}
}

func (s *Service) getDailyDeliveryCount(ctx context.Context, request *DeliveryStatisticRequest) ([]DeliveryStatisticResponseDataItem, error) {
	var results []DeliveryStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.WebhookDelivery{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, status as label, count(*) as value").
		Where(s.where(request, StatisticTypeDailyDeliveryCount)).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("status").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDeliveryByEvent(ctx context.Context, request *DeliveryStatisticRequest) ([]DeliveryStatisticResponseDataItem, error) {
	var results []DeliveryStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.WebhookDelivery{}).TableName()).
		Select("event_type as label, "+
			"count(*) filter (where status = ?) as value, "+
			"count(*) filter (where status = ?) as value2",
			types.DeliveryStatusSuccess, types.DeliveryStatusFailed).
		Where(s.where(request, StatisticTypeDeliveryByEvent)).
		Group("event_type").
		Order("event_type")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDeliverySuccessRate(ctx context.Context, request *DeliveryStatisticRequest) ([]DeliveryStatisticResponseDataItem, error) {
	var results []DeliveryStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.WebhookDelivery{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, "+
			"CAST(ROUND(count(*) filter (where status = ?) * 10000.0 / count(*)) AS INTEGER) as value, "+
			"count(*) as value2, "+
			"count(*) filter (where status = ?) as value3",
			types.DeliveryStatusSuccess, types.DeliveryStatusSuccess).
		Where(s.where(request, StatisticTypeDeliverySuccessRate)).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNotificationCount(ctx context.Context, request *DeliveryStatisticRequest) ([]DeliveryStatisticResponseDataItem, error) {
	var results []DeliveryStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.PaymentNotificationLog{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, status as label, count(*) as value").
		Where(s.where(request, StatisticTypeDailyNotificationCount)).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("status").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDeliveryStatistic(ctx context.Context, request *DeliveryStatisticRequest, dataItem *DeliveryStatisticDataItem) ([]DeliveryStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyDeliveryCount:
		return s.getDailyDeliveryCount(ctx, request)
	case StatisticTypeDeliveryByEvent:
		return s.getDeliveryByEvent(ctx, request)
	case StatisticTypeDeliverySuccessRate:
		return s.getDeliverySuccessRate(ctx, request)
	case StatisticTypeDailyNotificationCount:
		return s.getDailyNotificationCount(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetDeliveryStatistic computes every requested data item concurrently.
func (s *Service) GetDeliveryStatistic(ctx context.Context, request *DeliveryStatisticRequest) (*DeliveryStatisticResponse, error) {
	if request == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFields(request.Filters, AllowedFilterFields); err != nil {
		return nil, err
	}

	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []DeliveryStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		go func(di *DeliveryStatisticDataItem) {
			res, err := s.getDeliveryStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []DeliveryStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	// every goroutine sends exactly once, so the channels are never closed
	results := make(map[StatisticType][]DeliveryStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			return nil, err
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &DeliveryStatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(fx.Provide(New))
