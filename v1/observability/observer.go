package observability

import (
	"context"
	"time"
)

// OperationContext describes one finished operation.
type OperationContext struct {
	// Context is the context the operation ran under, or nil. Tracing
	// observers parent their spans on it.
	Context context.Context

	// Component is the reporting package, e.g. "orm".
	Component string

	// Operation is the kind of work, e.g. "select", "commit".
	Operation string

	// Resource is the primary target, for SQL statements the table name.
	Resource string

	// SubResource carries secondary context such as a transaction id.
	SubResource string

	Duration time.Duration
	Error    error

	// Size is the number of rows affected, or 0 when unknown.
	Size int64

	Metadata map[string]interface{}
}

// Observer receives finished operations. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }

type multiObserver []Observer

func (m multiObserver) ObserveOperation(ctx OperationContext) {
	for _, o := range m {
		o.ObserveOperation(ctx)
	}
}

// Multi fans an operation out to every non-nil observer. It returns nil when
// no observer is left.
func Multi(observers ...Observer) Observer {
	var out multiObserver
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}
