/*
Package observability turns interaction lifecycle events into Prometheus
metrics and structured logs.

Both are delivered as domain.LifecycleHooks; Combine fans one event out to
several hook sets:

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
*/
package observability
