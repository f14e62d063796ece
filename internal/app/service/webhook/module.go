package webhook

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(NewDispatcher),
	fx.Provide(NewRedeliverer),
	fx.Invoke(startRedeliveryLoop),
)
