/*
Package monitoring provides Prometheus metrics for the component host.

# Overview

Metrics cover the HTTP surface, the boot sequence (progress counters,
terminal outcomes and duration), route resolution outcomes, navigation
interception arm calls, remote circuits and WebSocket traffic.

Every recorder method is safe to call on a nil *Metrics, so components can
take metrics as an optional dependency.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	metrics.RecordRoute("matched")
	metrics.RecordBootProgress(2, 3)
*/
package monitoring
