package notification_log

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/internal/app/service/store"
	"github.com/fatflowers/payrecon/internal/models"
	"github.com/fatflowers/payrecon/pkg/logctx"
	"github.com/fatflowers/payrecon/pkg/tool"
)

type Service struct {
	store store.NotificationLogStore
	log   *zap.SugaredLogger
	wg    sync.WaitGroup
}

func New(s store.NotificationLogStore, log *zap.SugaredLogger) *Service {
	return &Service{store: s, log: log}
}

// Save asynchronously persists a payment notification log. Nil input is ignored.
// The write outlives the request, so ctx only supplies the logger.
func (s *Service) Save(ctx context.Context, entry *models.PaymentNotificationLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	log := logctx.FromCtx(ctx, s.log)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.store.CreateNotificationLog(context.WithoutCancel(ctx), entry); err != nil {
			log.Errorf("failed to save notification log: %v", err)
		}
	}()
}

// Wait blocks until every pending Save finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func newService(lc fx.Lifecycle, st store.NotificationLogStore, log *zap.SugaredLogger) *Service {
	s := New(st, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			s.Wait()
			return nil
		},
	})
	return s
}

var Module = fx.Options(fx.Provide(newService))
