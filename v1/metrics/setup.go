package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aleph-Alpha/orm/v1/observability"
	"github.com/Aleph-Alpha/orm/v1/orm"
)

// statusOK is the status label of successful operations. Failed operations
// carry their orm error category instead.
const statusOK = "ok"

// Metrics owns a Prometheus registry with the orm operation metrics and
// the HTTP server that exposes them. It implements observability.Observer.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rowsTotal         *prometheus.CounterVec
	openTransactions  *prometheus.GaugeVec
}

func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// All metrics emitted by this service carry service="<cfg.ServiceName>".
	var wrappedRegistry prometheus.Registerer = registry
	if cfg.ServiceName != "" {
		wrappedRegistry = prometheus.WrapRegistererWith(
			prometheus.Labels{"service": cfg.ServiceName},
			registry,
		)
	}

	m := &Metrics{
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}

	m.operationsTotal = createCounterVec(cfg.Namespace, "orm_operations_total",
		"Statements and transaction steps by outcome", []string{"component", "operation", "resource", "status"})
	m.operationDuration = createHistogramVec(cfg.Namespace, "orm_operation_duration_seconds",
		"Duration of statements and transaction steps", []string{"component", "operation", "resource"}, prometheus.DefBuckets)
	m.rowsTotal = createCounterVec(cfg.Namespace, "orm_rows_affected_total",
		"Rows affected by insert, update and delete statements", []string{"component", "operation", "resource"})
	m.openTransactions = createGaugeVec(cfg.Namespace, "orm_open_transactions",
		"Transactions begun and not yet ended", []string{"component"})

	wrappedRegistry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.rowsTotal,
		m.openTransactions,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	address := cfg.Address
	if address == "" {
		address = DefaultMetricsAddress
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	m.Server = &http.Server{
		Addr:    address,
		Handler: mux,
	}
	return m
}

// ObserveOperation records one finished orm operation.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	status := statusOK
	if op.Error != nil {
		status = orm.Categorize(op.Error).String()
	}
	m.operationsTotal.WithLabelValues(op.Component, op.Operation, op.Resource, status).Inc()
	m.operationDuration.WithLabelValues(op.Component, op.Operation, op.Resource).Observe(op.Duration.Seconds())
	if op.Size > 0 {
		m.rowsTotal.WithLabelValues(op.Component, op.Operation, op.Resource).Add(float64(op.Size))
	}

	switch op.Operation {
	case "begin":
		if op.Error == nil {
			m.openTransactions.WithLabelValues(op.Component).Inc()
		}
	case "commit", "rollback":
		// A failed commit or rollback still ends the transaction.
		m.openTransactions.WithLabelValues(op.Component).Dec()
	}
}

// CreateCounter creates a new CounterVec metric and registers it.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	c := createCounterVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(c)
	return c
}

// CreateHistogram creates a new HistogramVec metric and registers it.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	h := createHistogramVec(m.namespace, name, help, labels, buckets)
	m.registerer.MustRegister(h)
	return h
}

// CreateGauge creates a new GaugeVec metric and registers it.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	g := createGaugeVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(g)
	return g
}
