// Package observability exports primegen metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	g := primegen.New(primegen.WithMetricsCollector(observability.NewCollector(reg)))
package observability
