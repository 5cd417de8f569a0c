// Package monitor wraps sequences, function calls and code blocks so that
// their progress is reported through a hook without changing what they do.
//
// Every run creates a fresh task, rule and hook. The hook sees one start
// notification, one notification each time the rule fires, and exactly one
// terminal notification whether the run succeeds, fails, panics or is
// abandoned by its consumer. Errors and panics reach the caller unchanged.
//
// A nil *Monitor, or one built without a hook, is a transparent
// pass-through.
package monitor

import (
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/JakeFAU/progress-monitor/internal/clock"
	"github.com/JakeFAU/progress-monitor/internal/hook"
	"github.com/JakeFAU/progress-monitor/internal/progress"
	"github.com/JakeFAU/progress-monitor/internal/rule"
)

// RuleFactory builds the rule of one run. length is the number of elements,
// or progress.Unbounded when unknown.
type RuleFactory func(length int) (rule.Rule, error)

// HookFactory builds the hook of one run.
type HookFactory func(length int) (hook.Hook, error)

// Monitor holds the recipe for monitoring runs. It is safe for concurrent
// use since every run builds its own state.
type Monitor struct {
	name     string
	taskName string
	rules    RuleFactory
	hooks    HookFactory
	logger   *zap.Logger
	clock    clock.Clock
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithTaskName sets the task name. Empty names become "Unnamed_task.<id>".
func WithTaskName(name string) Option {
	return func(m *Monitor) { m.taskName = name }
}

// WithRuleFactory sets how rules are built. The default notifies always.
func WithRuleFactory(f RuleFactory) Option {
	return func(m *Monitor) { m.rules = f }
}

// WithHookFactory sets how hooks are built.
func WithHookFactory(f HookFactory) Option {
	return func(m *Monitor) { m.hooks = f }
}

// WithHook uses h for every run. h must tolerate being shared by runs.
func WithHook(h hook.Hook) Option {
	return WithHookFactory(func(int) (hook.Hook, error) { return h, nil })
}

// WithLogger sets the logger used for build failures.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// WithClock sets the clock of the tasks.
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// New creates a Monitor named name.
func New(name string, opts ...Option) *Monitor {
	m := &Monitor{name: name}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.rules == nil {
		m.rules = func(int) (rule.Rule, error) { return rule.Always{}, nil }
	}
	m.clock = clock.OrSystem(m.clock)
	return m
}

// Nop returns the pass-through monitor.
func Nop() *Monitor { return nil }

// Name returns the monitor name.
func (m *Monitor) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Enabled reports whether runs are observed.
func (m *Monitor) Enabled() bool {
	return m != nil && m.hooks != nil
}

// run is the state of one monitored execution.
type run struct {
	task *progress.Task
	rule rule.Rule
	hook hook.Hook
	call *progress.Call
	done bool
}

// begin builds the state of a run. It returns nil when the monitor is a
// pass-through or when building fails, in which case the failure is logged
// and the run proceeds unobserved.
func (m *Monitor) begin(length int) *run {
	if !m.Enabled() {
		return nil
	}
	if length < 0 {
		length = progress.Unbounded
	}
	r := m.build(length)
	if r != nil {
		r.task = progress.NewTask(m.taskName, length, progress.WithClock(m.clock))
	}
	return r
}

// build returns a run holding a fresh rule and hook but no task, or nil
// when either fails to build.
func (m *Monitor) build(length int) *run {
	r, err := m.rules(length)
	if err != nil {
		m.logger.Error("progress monitor rule build failed; running unmonitored",
			zap.String("monitor", m.name), zap.Error(err))
		return nil
	}
	h, err := m.hooks(length)
	if err != nil {
		m.logger.Error("progress monitor hook build failed; running unmonitored",
			zap.String("monitor", m.name), zap.Error(err))
		return nil
	}
	return &run{rule: r, hook: h}
}

func (r *run) start() {
	r.done = false
	r.task.Start()
	r.notify(nil)
}

func (r *run) notify(err error) {
	r.hook.Handle(progress.Event{Task: r.task, Err: err, Call: r.call})
}

// step records progress p and notifies when the rule asks for it. It
// reports whether the known total has been reached.
func (r *run) step(p int) bool {
	if r.task.Update(p) {
		return true
	}
	if r.rule.ShouldNotify(r.task) {
		r.notify(nil)
	}
	return false
}

// finish closes the task and sends the terminal notification once.
func (r *run) finish(success bool, err error) {
	if r.done {
		return
	}
	r.done = true
	r.task.Close(success)
	r.notify(err)
}

// settle must be deferred directly. It closes a run left open by a panic, a
// consumer break or runtime.Goexit, then re-panics with the original value.
func (r *run) settle() {
	if r.done {
		return
	}
	if v := recover(); v != nil {
		r.finish(false, &progress.PanicError{Value: v, Stack: debug.Stack()})
		panic(v)
	}
	r.finish(false, nil)
}
