package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/docs"
	"github.com/fatflowers/payrecon/internal/app/api/handlers"
	mw "github.com/fatflowers/payrecon/internal/app/api/middleware"
	nh "github.com/fatflowers/payrecon/internal/app/service/notification_handler"
	"github.com/fatflowers/payrecon/internal/app/service/reconcile"
	"github.com/fatflowers/payrecon/internal/app/service/statistics"
	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/app/service/webhook"
	cfgpkg "github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Engine       *gin.Engine
	Log          *zap.SugaredLogger
	Cfg          *cfgpkg.Config
	Notification *nh.NotificationHandler
	Deliveries   store.DeliveryStore
	Redeliverer  *webhook.Redeliverer
	Stats        *statistics.Service
	Reconcile    *reconcile.Service
}

func registerRoutes(lc fx.Lifecycle, d routeDeps) {
	r, log := d.Engine, d.Log

	// Prometheus metrics
	p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
		Subsystem: metrics.Subsystem,
		Logger:    log,
	})
	p.Use(r, d.Cfg.MetricsAddr)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if srv := p.Server(); srv != nil {
				return srv.Shutdown(ctx)
			}
			return nil
		},
	})

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	// Admin APIs
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), d.Deliveries, d.Redeliverer, d.Stats, d.Reconcile)

	// Processor notifications
	hooks := apiV1.Group("/payment/webhook")
	hooks.Use(mw.CORSMiddleware())
	handlers.RegisterPaymentWebhookRoutes(hooks, d.Notification)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
