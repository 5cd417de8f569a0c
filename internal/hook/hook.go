// Package hook connects the monitors to the rendering pipeline. A Hook is
// invoked at the start of a run, whenever the notification rule fires, and
// exactly once at the end of the run.
package hook

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/progress-monitor/internal/format"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// Hook observes a notification.
type Hook interface {
	Handle(ev progress.Event)
}

// Func adapts a function to the Hook interface.
type Func func(ev progress.Event)

// Handle calls f.
func (f Func) Handle(ev progress.Event) { f(ev) }

// FormattedHook renders each event with a formatter, usually a
// compose.Composer, and delivers the line to a sink. The final flag passed
// to the sink is ev.Final().
type FormattedHook struct {
	formatter format.Formatter
	sink      progress.Sink
	logger    *zap.Logger
}

// Formatted creates a FormattedHook. Sink failures are logged at Warn and
// never reach the monitored code.
func Formatted(f format.Formatter, sink progress.Sink, logger *zap.Logger) *FormattedHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormattedHook{formatter: f, sink: sink, logger: logger}
}

// Handle renders and delivers ev.
func (h *FormattedHook) Handle(ev progress.Event) {
	text := h.formatter.Format(ev)
	if err := progress.Deliver(h.sink, text, ev); err != nil {
		h.logger.Warn("progress sink notify failed",
			zap.String("task", ev.Task.Name()),
			zap.Bool("final", ev.Final()),
			zap.Error(err))
	}
}

// Listener fans an event out to several hooks in registration order.
type Listener struct {
	hooks []Hook
}

// NewListener creates a Listener. Nil hooks are skipped.
func NewListener(hooks ...Hook) *Listener {
	l := &Listener{}
	for _, h := range hooks {
		l.Add(h)
	}
	return l
}

// Add appends h.
func (l *Listener) Add(h Hook) {
	if h != nil {
		l.hooks = append(l.hooks, h)
	}
}

// Len returns the number of hooks.
func (l *Listener) Len() int { return len(l.hooks) }

// Handle forwards ev to every hook.
func (l *Listener) Handle(ev progress.Event) {
	for _, h := range l.hooks {
		h.Handle(ev)
	}
}

var (
	_ Hook = Func(nil)
	_ Hook = (*FormattedHook)(nil)
	_ Hook = (*Listener)(nil)
)
