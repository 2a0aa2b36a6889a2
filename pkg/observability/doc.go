/*
Package observability turns engine lifecycle events into Prometheus metrics
and structured log lines.

Wire it through vibecam.WithLifecycleHooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	eng := vibecam.New(completer, generator,
		vibecam.WithLifecycleHooks(observability.Merge(
			metrics.Hooks(),
			observability.LogHooks(logger),
		)),
	)
*/
package observability
