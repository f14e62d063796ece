package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/payrecon/internal/app/api/server"
	notificationhandler "github.com/fatflowers/payrecon/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/payrecon/internal/app/service/notification_log"
	"github.com/fatflowers/payrecon/internal/app/service/reconcile"
	"github.com/fatflowers/payrecon/internal/app/service/statistics"
	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/app/service/webhook"
	"github.com/fatflowers/payrecon/internal/platform/db"
	"github.com/fatflowers/payrecon/internal/platform/kafka"
	"github.com/fatflowers/payrecon/internal/platform/mercadopago"
	"github.com/fatflowers/payrecon/internal/platform/redislock"
	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/logger"
	"github.com/fatflowers/payrecon/pkg/metrics"
	"github.com/fatflowers/payrecon/pkg/tracing"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// CoreModule wires everything needed to reconcile payments and deliver webhooks,
// without the HTTP server.
var CoreModule = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	tracing.Module,
	db.Module,
	store.Module,
	mercadopago.Module,
	redislock.Module,
	kafka.Module,
	webhook.Module,
	reconcile.Module,
)

var Module = fx.Options(
	CoreModule,
	statistics.Module,
	notificationlog.Module,
	notificationhandler.Module,
	server.Module,
)
