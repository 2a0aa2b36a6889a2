package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	Turns         *prometheus.CounterVec
	PatchFailures *prometheus.CounterVec
	FetchAttempts *prometheus.CounterVec
	Develops      *prometheus.CounterVec
	DevelopTime   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg when not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibecam_turns_total",
				Help: "Conversational turns by resulting status",
			},
			[]string{"status"},
		),
		PatchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibecam_patch_failures_total",
				Help: "Agent patches that could not be parsed or applied",
			},
			[]string{"stage"},
		),
		FetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibecam_fetch_attempts_total",
				Help: "Image download attempts by outcome",
			},
			[]string{"outcome"},
		),
		Develops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibecam_develops_total",
				Help: "Pipeline runs by result",
			},
			[]string{"result"},
		),
		DevelopTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vibecam_develop_duration_seconds",
			Help:    "Duration of fetch, overlay and encode",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Turns, m.PatchFailures, m.FetchAttempts, m.Develops, m.DevelopTime)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			m.Turns.WithLabelValues(string(e.Status)).Inc()
			if e.ParseFailed {
				m.PatchFailures.WithLabelValues("parse").Inc()
			}
			if e.ApplyFailed {
				m.PatchFailures.WithLabelValues("apply").Inc()
			}
		},
		OnFetchAttempt: func(ctx context.Context, e *domain.FetchEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.FetchAttempts.WithLabelValues(outcome).Inc()
		},
		OnDevelop: func(ctx context.Context, e *domain.DevelopEvent) {
			result := "watermarked"
			switch {
			case e.Err != nil:
				result = "error"
			case !e.Watermarked:
				result = "passthrough"
			}
			m.Develops.WithLabelValues(result).Inc()
			m.DevelopTime.Observe(e.Duration.Seconds())
		},
	}
}

// LogHooks logs every lifecycle event at debug level, failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn",
				"status", e.Status,
				"entries", e.PatchEntries,
				"applied", e.Applied,
				"parse_failed", e.ParseFailed,
				"apply_failed", e.ApplyFailed,
			)
		},
		OnFetchAttempt: func(ctx context.Context, e *domain.FetchEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "fetch_attempt", "attempt", e.Attempt, "wait", e.Wait, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "fetch_attempt", "attempt", e.Attempt)
		},
		OnDevelop: func(ctx context.Context, e *domain.DevelopEvent) {
			logger.InfoContext(ctx, "develop", "watermarked", e.Watermarked, "duration", e.Duration, "err", e.Err)
		},
	}
}

// Merge chains several hook sets; each callback runs in argument order.
func Merge(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		h := h
		if h.OnTurn != nil {
			prev := out.OnTurn
			out.OnTurn = func(ctx context.Context, e *domain.TurnEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTurn(ctx, e)
			}
		}
		if h.OnFetchAttempt != nil {
			prev := out.OnFetchAttempt
			out.OnFetchAttempt = func(ctx context.Context, e *domain.FetchEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnFetchAttempt(ctx, e)
			}
		}
		if h.OnDevelop != nil {
			prev := out.OnDevelop
			out.OnDevelop = func(ctx context.Context, e *domain.DevelopEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnDevelop(ctx, e)
			}
		}
	}
	return out
}
