package handlers

import (
	"github.com/fatflowers/payrecon/internal/app/service/reconcile"
	"github.com/fatflowers/payrecon/internal/app/service/statistics"
	"github.com/fatflowers/payrecon/internal/app/service/webhook"
	"github.com/fatflowers/payrecon/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespHealth struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    map[string]string        `json:"data"`
}

// RespListDeliveries wraps ListDeliveriesResponse in the standard envelope.
type RespListDeliveries struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListDeliveriesResponse   `json:"data"`
}

// RespRedeliver carries a DeliveryOutcome for single redeliveries or a
// RedeliveryReport for due sweeps.
type RespRedeliver struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    webhook.RedeliveryReport `json:"data"`
}

// RespDeliveryStatistic wraps DeliveryStatisticResponse in the standard envelope.
type RespDeliveryStatistic struct {
	Code    response.APIResponseCode             `json:"code"`
	Message string                               `json:"message"`
	Data    statistics.DeliveryStatisticResponse `json:"data"`
}

type RespReconcilePending struct {
	Code    response.APIResponseCode  `json:"code"`
	Message string                    `json:"message"`
	Data    []reconcile.PendingResult `json:"data"`
}

// MercadoPagoNotification documents the inbound notification body.
type MercadoPagoNotification struct {
	Type   string `json:"type" example:"payment"`
	Action string `json:"action" example:"payment.updated"`
	Data   struct {
		ID string `json:"id" example:"123456789"`
	} `json:"data"`
}
