package main

import (
	"context"

	"go.uber.org/fx"

	"github.com/fatflowers/payrecon/internal/app"
	"github.com/fatflowers/payrecon/pkg/config"
)

// withCore starts the core graph without the HTTP server, populates targets and
// runs fn. Background loops are disabled so the command owns all the work.
func withCore(ctx context.Context, fn func(context.Context) error, targets ...any) error {
	a := fx.New(
		app.CoreModule,
		fx.Decorate(func(c *config.Config) *config.Config {
			c.Webhooks.RedeliverInterval = 0
			return c
		}),
		fx.Populate(targets...),
		fx.NopLogger,
	)
	if err := a.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		return err
	}
	runErr := fn(ctx)

	stopCtx, cancel2 := context.WithTimeout(context.WithoutCancel(ctx), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
