// Package observability defines the hook through which database components
// report the operations they perform.
//
// Components hold an optional Observer and call it once per finished
// operation. Metrics and tracing backends implement Observer; see
// v1/metrics and v1/tracer.
//
//	db := orm.New(transport, dialect.Postgres, orm.WithObserver(
//	    observability.Multi(metricsObserver, tracerObserver),
//	))
package observability
