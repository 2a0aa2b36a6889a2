package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTurn(ctx, &domain.TurnEvent{Status: domain.StatusCollecting, ParseFailed: true})
	hooks.OnTurn(ctx, &domain.TurnEvent{Status: domain.StatusReady})
	hooks.OnFetchAttempt(ctx, &domain.FetchEvent{Attempt: 1, Err: errors.New("reset")})
	hooks.OnFetchAttempt(ctx, &domain.FetchEvent{Attempt: 2})
	hooks.OnDevelop(ctx, &domain.DevelopEvent{Watermarked: false, Duration: time.Second})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("collecting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PatchFailures.WithLabelValues("parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Develops.WithLabelValues("passthrough")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DevelopTime))
}

func TestMerge(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnTurn: func(context.Context, *domain.TurnEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{OnTurn: func(context.Context, *domain.TurnEvent) { order = append(order, "b") }}
	c := domain.LifecycleHooks{OnDevelop: func(context.Context, *domain.DevelopEvent) { order = append(order, "c") }}

	merged := observability.Merge(a, b, c)
	merged.OnTurn(context.Background(), &domain.TurnEvent{})
	merged.OnDevelop(context.Background(), &domain.DevelopEvent{})

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Nil(t, merged.OnFetchAttempt)
}
