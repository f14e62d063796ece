package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	nh "github.com/fatflowers/payrecon/internal/app/service/notification_handler"
	"github.com/fatflowers/payrecon/internal/platform/mercadopago"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/response"
)

// maxNotificationBytes bounds the notification body read into memory.
const maxNotificationBytes = 1 << 20

// @Summary      Mercado Pago Webhook
// @Description  Receives Mercado Pago payment notifications and reconciles the order. Always answers 200; the outcome is in the body.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body handlers.MercadoPagoNotification true "Mercado Pago notification"
// @Param        x-signature header string false "ts=<unix>,v1=<hex>"
// @Param        x-request-id header string false "Request id used in the signature manifest"
// @Success      200  {object}  response.WebhookAck
// @Router       /api/v1/payment/webhook/mercadopago [post]
// ApiMercadoPagoWebhook handles Mercado Pago notifications
func ApiMercadoPagoWebhook(h *nh.NotificationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, h.Logger)
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("webhook_mercadopago_panic", "panic", r)
				c.JSON(http.StatusOK, response.AckError("internal error"))
			}
		}()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBytes))
		if err != nil {
			log.Errorw("webhook_mercadopago_read_error", "error", err.Error())
			c.JSON(http.StatusOK, response.AckError("failed to read body"))
			return
		}

		res := h.HandleMercadoPago(c.Request.Context(), nh.Request{
			Body:      body,
			Query:     c.Request.URL.Query(),
			Signature: c.GetHeader(mercadopago.HeaderSignature),
			RequestID: c.GetHeader(mercadopago.HeaderRequestID),
		})
		c.JSON(http.StatusOK, toAck(res))
	}
}

func toAck(res *nh.Result) response.WebhookAck {
	switch res.Kind {
	case nh.ResultProcessed:
		return response.AckProcessed(res.OrderID)
	case nh.ResultIgnored:
		return response.AckIgnored(res.Message)
	default:
		return response.AckError(res.Message)
	}
}

// ApiWebhookPreflight answers CORS preflight requests.
func ApiWebhookPreflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, h *nh.NotificationHandler) {
	// Mount under provided group, expected at "/api/v1/payment/webhook"
	r.OPTIONS("/mercadopago", ApiWebhookPreflight)
	r.POST("/mercadopago", ApiMercadoPagoWebhook(h))
}
