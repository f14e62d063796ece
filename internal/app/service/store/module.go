package store

import "go.uber.org/fx"

// Module exposes the GORM store under each of its interfaces.
var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(
		func(s *Store) OrderStore { return s },
		func(s *Store) IntegrationStore { return s },
		func(s *Store) WebhookStore { return s },
		func(s *Store) ProductStore { return s },
		func(s *Store) DeliveryStore { return s },
		func(s *Store) NotificationLogStore { return s },
	),
)
