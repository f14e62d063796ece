package reconcile

import (
	"go.uber.org/fx"

	"github.com/fatflowers/payrecon/internal/app/service/webhook"
	"github.com/fatflowers/payrecon/internal/platform/mercadopago"
)

var Module = fx.Options(
	fx.Provide(
		NewReconciler,
		func(c *mercadopago.Client) PaymentFetcher { return c },
		func(d *webhook.Dispatcher) EventDispatcher { return d },
		NewService,
	),
)
