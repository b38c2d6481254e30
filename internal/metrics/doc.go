// Package metrics collects per-resource request metrics for the inventory
// service.
//
// Events flow through a buffered channel into a single collector goroutine,
// so the request path never waits on bookkeeping. For every resource label
// the collector tracks request counts, the status code distribution and
// response latency (average, P50, P95, P99). It also counts how often a
// pooled database connection could not be acquired.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Resource:   "users",
//		Duration:   12 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot("CONNECTED")
//
// Cancelling the context passed to Start drains queued events before the
// collector goroutine exits.
package metrics
