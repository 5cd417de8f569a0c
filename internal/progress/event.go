package progress

import (
	"fmt"
)

// Call carries the context of a monitored function invocation.
type Call struct {
	// Name identifies the callee.
	Name string
	// Args are the arguments the callee was invoked with.
	Args []any
	// Result is the return value; only set on the final event of a successful call.
	Result any
}

// Event is what hooks, rules and formatters observe on every notification.
type Event struct {
	// Task is the run being reported. It must not be mutated by observers.
	Task *Task
	// Err is set on the terminal event of a failed run.
	Err error
	// Call is set by function monitors.
	Call *Call
}

// Final reports whether this is the terminal notification of the run.
func (e Event) Final() bool {
	return e.Err != nil || (e.Task != nil && e.Task.Closed())
}

// PanicError reports a panic observed while a monitored body was running. The
// monitor re-panics with Value once the terminal notification has been sent.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
