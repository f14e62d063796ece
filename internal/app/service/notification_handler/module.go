package notification_handler

import (
	"go.uber.org/fx"

	"github.com/fatflowers/payrecon/internal/app/service/notification_log"
	"github.com/fatflowers/payrecon/internal/app/service/reconcile"
)

var Module = fx.Options(
	fx.Provide(
		func(s *notification_log.Service) AuditLog { return s },
		func(s *reconcile.Service) PaymentReconciler { return s },
		NewNotificationHandler,
	),
)
