package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromCtx_PrefersStoredLogger(t *testing.T) {
	base := zap.NewNop().Sugar()
	core, logs := observer.New(zap.InfoLevel)
	stored := zap.New(core).Sugar()

	ctx := WithLogger(context.Background(), stored)
	FromCtx(ctx, base).Infow("hello")

	require.Equal(t, 1, logs.Len())
}

func TestFromCtx_EnrichesTraceID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core).Sugar()

	ctx := context.WithValue(context.Background(), TraceIDKey, "tid-1")
	FromCtx(ctx, base).Infow("hello")

	require.Equal(t, 1, logs.Len())
	require.Equal(t, "tid-1", logs.All()[0].ContextMap()["trace_id"])
	require.Equal(t, "tid-1", TraceID(ctx))
	require.Empty(t, TraceID(context.Background()))
}
