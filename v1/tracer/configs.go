package tracer

// Config defines the configuration for the OpenTelemetry tracer provider.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string

	// AppEnv is reported as deployment.environment, e.g. "production".
	AppEnv string

	// EnableExport sends spans to an OTLP HTTP collector. The endpoint is
	// read from the standard OTEL_EXPORTER_OTLP_* environment variables.
	// Without export, spans are created but dropped on end.
	EnableExport bool
}
