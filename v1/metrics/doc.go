// Package metrics exposes orm operations as Prometheus metrics.
//
// A *Metrics owns an isolated registry and an HTTP server serving it on
// /metrics. It is an observability.Observer; attached to an orm executor it
// maintains:
//
//   - orm_operations_total{component, operation, resource, status}, where
//     status is "ok" or the orm error category of the failure
//   - orm_operation_duration_seconds{component, operation, resource}
//   - orm_rows_affected_total{component, operation, resource}
//   - orm_open_transactions{component}
//
// Every name carries Config.Namespace as prefix and every series the
// constant label service=Config.ServiceName.
//
//	m := metrics.NewMetrics(metrics.Config{Namespace: "billing", ServiceName: "invoices"})
//	db, err := sqlite.NewSQLite(cfg, metrics.ObserverOption(m))
//
// Application metrics are created on the same registry:
//
//	jobs := m.CreateCounter("jobs_total", "Processed jobs", []string{"kind"})
//	jobs.WithLabelValues("export").Inc()
//
// FX: metrics.FXModule provides *Metrics from a Config, contributes its
// observer to the "orm_options" group consumed by the database modules, and
// runs the metrics server between start and stop.
package metrics
