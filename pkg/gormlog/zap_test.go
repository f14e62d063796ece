package gormlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/payrecon/pkg/logctx"
)

func TestShortCaller(t *testing.T) {
	cases := map[string]string{
		"":                                          "",
		"/home/ci/payrecon/internal/store/order.go:42": "internal/store/order.go:42",
		"/home/ci/payrecon/pkg/retry/retry.go:7":       "pkg/retry/retry.go:7",
		"/a/b/c/d/e.go:1":                              "c/d/e.go:1",
		"/x/y.go:3":                                    "x/y.go:3",
	}
	for in, want := range cases {
		assert.Equal(t, want, shortCaller(in), in)
	}
}

func TestTrace_ErrorCarriesTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core).Sugar(), "production")

	ctx := context.WithValue(context.Background(), logctx.TraceIDKey, "t-1")
	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "gorm_error", entry.Message)
	assert.Equal(t, "t-1", entry.ContextMap()["trace_id"])
	assert.Equal(t, "SELECT 1", entry.ContextMap()["sql"])
}

func TestTrace_RecordNotFoundIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core).Sugar(), "production")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())
}

func TestTrace_SilentAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core).Sugar(), "development")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "gorm", logs.All()[0].Message)

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 2", 1 }, errors.New("boom"))
	assert.Equal(t, 1, logs.Len())
}
