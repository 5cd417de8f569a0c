package progress

import "context"

// Sink consumes a rendered notification. final is true exactly once per run,
// on the terminal notification, so buffering sinks know when to flush.
type Sink interface {
	Notify(text string, final bool) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(text string, final bool) error

// Notify calls f.
func (f SinkFunc) Notify(text string, final bool) error {
	return f(text, final)
}

// Closer is implemented by sinks that hold resources the Hub must release
// when it shuts down.
type Closer interface {
	Close(ctx context.Context) error
}

// EventSink is implemented by sinks that also want the event a line was
// rendered from, for example to attach structured task fields. Hooks call
// NotifyEvent instead of Notify when it is available.
type EventSink interface {
	Sink
	NotifyEvent(text string, ev Event) error
}

// Deliver sends text to sink, passing ev along when the sink accepts it.
func Deliver(sink Sink, text string, ev Event) error {
	if es, ok := sink.(EventSink); ok {
		return es.NotifyEvent(text, ev)
	}
	return sink.Notify(text, ev.Final())
}
