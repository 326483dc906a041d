package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

type Config struct {
	// Level is one of debug, info, warning or error.
	// Default: info
	Level string

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string

	// EnableTracing makes the *WithContext methods add trace_id and
	// span_id from the OpenTelemetry span in the context.
	EnableTracing bool
}
