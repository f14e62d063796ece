package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payrecon/pkg/config"
	"github.com/fatflowers/payrecon/pkg/retry"
	"github.com/fatflowers/payrecon/pkg/tool"
)

// ErrNotAcquired means another holder owns the key.
var ErrNotAcquired = errors.New("lock is held by another owner")

// ReleaseFunc gives the lock back. Releasing an expired or stolen lock is a no-op.
type ReleaseFunc func(ctx context.Context) error

type Locker interface {
	// Acquire takes key for ttl without waiting, returning ErrNotAcquired when held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	token := tool.GenerateUUIDV7()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

// NoopLocker always succeeds. It is used when Redis is not configured.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string, time.Duration) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}

// PaymentKey is the lock key serializing work on one processor payment.
func PaymentKey(paymentID string) string {
	return "payrecon:lock:payment:" + paymentID
}

const pollInterval = 100 * time.Millisecond

// AcquireWithin polls Acquire until it succeeds or wait elapses. The last error is
// wrapped with retry.ErrExhausted on timeout.
func AcquireWithin(ctx context.Context, l Locker, key string, ttl, wait time.Duration) (ReleaseFunc, error) {
	attempts := int(wait/pollInterval) + 1
	var release ReleaseFunc
	err := retry.Policy{
		MaxAttempts: attempts,
		Backoff:     retry.Constant(pollInterval),
		Retryable:   func(err error) bool { return errors.Is(err, ErrNotAcquired) },
	}.Do(ctx, func(ctx context.Context, _ int) error {
		r, err := l.Acquire(ctx, key, ttl)
		if err != nil {
			return err
		}
		release = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return release, nil
}

// New returns a Redis-backed locker when redis.addr is set and a NoopLocker otherwise.
func New(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (Locker, error) {
	if cfg.Redis.Addr == "" {
		log.Infow("redis not configured, payment locking disabled")
		return NoopLocker{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Infow("redis connection established", "addr", cfg.Redis.Addr)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisLocker(client), nil
}

var Module = fx.Options(fx.Provide(New))
