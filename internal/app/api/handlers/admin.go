package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/fatflowers/payrecon/internal/app/service/reconcile"
	"github.com/fatflowers/payrecon/internal/app/service/statistics"
	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/app/service/webhook"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/response"
	"github.com/fatflowers/payrecon/pkg/types"
)

type DeliveryScanner interface {
	ScanDeliveries(ctx context.Context, req *store.ScanDeliveriesRequest) (*store.ScanDeliveriesResponse, error)
}

type Redeliverer interface {
	Redeliver(ctx context.Context, deliveryID string) (*webhook.DeliveryOutcome, error)
	RedeliverDue(ctx context.Context, now time.Time, limit int) (*webhook.RedeliveryReport, error)
}

type StatisticProvider interface {
	GetDeliveryStatistic(ctx context.Context, req *statistics.DeliveryStatisticRequest) (*statistics.DeliveryStatisticResponse, error)
}

type PendingReconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) ([]reconcile.PendingResult, error)
}

type ListDeliveriesRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type DeliveryItem struct {
	ID             string               `json:"id"`
	WebhookID      string               `json:"webhook_id"`
	OrderID        string               `json:"order_id"`
	ProductID      *string              `json:"product_id"`
	EventType      types.EventType      `json:"event_type"`
	Payload        datatypes.JSON       `json:"payload" swaggertype:"object"`
	Status         types.DeliveryStatus `json:"status"`
	ResponseStatus int                  `json:"response_status"`
	ResponseBody   string               `json:"response_body"`
	Attempts       int                  `json:"attempts"`
	LastAttemptAt  time.Time            `json:"last_attempt_at"`
	NextRetryAt    *time.Time           `json:"next_retry_at"`
	SupersededBy   *string              `json:"superseded_by"`
	CreatedAt      time.Time            `json:"created_at"`
}

func toDeliveryItem(m *models.WebhookDelivery) *DeliveryItem {
	return &DeliveryItem{
		ID:             m.ID,
		WebhookID:      m.WebhookID,
		OrderID:        m.OrderID,
		ProductID:      m.ProductID,
		EventType:      m.EventType,
		Payload:        m.Payload,
		Status:         m.Status,
		ResponseStatus: m.ResponseStatus,
		ResponseBody:   m.ResponseBody,
		Attempts:       m.Attempts,
		LastAttemptAt:  m.LastAttemptAt,
		NextRetryAt:    m.NextRetryAt,
		SupersededBy:   m.SupersededBy,
		CreatedAt:      m.CreatedAt,
	}
}

type ListDeliveriesResponse struct {
	Items []*DeliveryItem `json:"items"`
	Total int64           `json:"total"`
}

// @Summary      List Webhook Deliveries (Admin)
// @Description  Retrieves a paginated and filterable list of outbound webhook delivery attempts.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListDeliveriesRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListDeliveries
// @Router       /api/v1/admin/list_webhook_deliveries [post]
func ApiListWebhookDeliveries(scanner DeliveryScanner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListDeliveriesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		scanReq := &store.ScanDeliveriesRequest{Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder}
		res, err := scanner.ScanDeliveries(c.Request.Context(), scanReq)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.WebhookDelivery, _ int) *DeliveryItem { return toDeliveryItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListDeliveriesResponse{Items: items, Total: res.Total}))
	}
}

type RedeliverRequest struct {
	// DeliveryID redelivers one delivery. When empty, every due delivery is redelivered.
	DeliveryID string `json:"delivery_id"`
	Limit      int    `json:"limit"`
}

// @Summary      Redeliver Webhooks (Admin)
// @Description  Re-sends one failed delivery, or every failed delivery whose backoff elapsed.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body RedeliverRequest true "Redeliver request"
// @Success      200  {object}  handlers.RespRedeliver
// @Router       /api/v1/admin/redeliver [post]
func ApiRedeliver(r Redeliverer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RedeliverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.DeliveryID == "" {
			report, err := r.RedeliverDue(c.Request.Context(), time.Now(), req.Limit)
			if err != nil {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.OKT(report))
			return
		}

		out, err := r.Redeliver(c.Request.Context(), req.DeliveryID)
		switch {
		case errors.Is(err, webhook.ErrDeliveryNotFound):
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
		case errors.Is(err, webhook.ErrAlreadyDelivered),
			errors.Is(err, webhook.ErrAttemptsExhausted),
			errors.Is(err, webhook.ErrDeliverySuperseded),
			errors.Is(err, webhook.ErrWebhookInactive):
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
		case err != nil:
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
		default:
			c.JSON(http.StatusOK, response.OKT(out))
		}
	}
}

// @Summary      Get Delivery Statistics (Admin)
// @Description  Retrieves delivery and notification counts grouped by day, status, and event type.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.DeliveryStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespDeliveryStatistic
// @Router       /api/v1/admin/delivery_statistic [post]
func ApiGetDeliveryStatistic(svc StatisticProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.DeliveryStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetDeliveryStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type ReconcilePendingRequest struct {
	OlderThanMinutes int `json:"older_than_minutes"`
	Limit            int `json:"limit"`
}

// @Summary      Reconcile Pending Orders (Admin)
// @Description  Re-checks PENDING orders older than the given age against Mercado Pago.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ReconcilePendingRequest true "Sweep parameters"
// @Success      200  {object}  handlers.RespReconcilePending
// @Router       /api/v1/admin/reconcile_pending [post]
func ApiReconcilePending(svc PendingReconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReconcilePendingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.OlderThanMinutes <= 0 {
			req.OlderThanMinutes = 30
		}
		if req.Limit <= 0 || req.Limit > 500 {
			req.Limit = 100
		}
		res, err := svc.ReconcilePending(c.Request.Context(), time.Duration(req.OlderThanMinutes)*time.Minute, req.Limit)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, scanner DeliveryScanner, redeliverer Redeliverer, stats StatisticProvider, pending PendingReconciler) {
	r.POST("/list_webhook_deliveries", ApiListWebhookDeliveries(scanner))
	r.POST("/redeliver", ApiRedeliver(redeliverer))
	r.POST("/delivery_statistic", ApiGetDeliveryStatistic(stats))
	r.POST("/reconcile_pending", ApiReconcilePending(pending))
}
