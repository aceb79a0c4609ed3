// Package telemetry provides observability for argus.
//
// # Components
//
//   - logging: structured logging via log/slog
//   - metrics: Prometheus metrics collection
//   - health: liveness, readiness, and version HTTP endpoints
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{Level: "info", Format: "json"})
//
//	collector, err := metrics.NewCollector("argus", "", nil)
//	collector.Policy().RecordEvaluation("deny", time.Millisecond)
//
//	checker := health.New(0)
//	checker.RegisterCheck("audit_store", func(ctx context.Context) error { ... })
//	health.Register(mux, checker, version, commit, buildDate)
package telemetry
