package monitor

import (
	"runtime/debug"

	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// Scope brackets a block of code. Open starts the task; Close ends it and
// must be called on every path, which Run guarantees.
type Scope struct {
	monitor *Monitor
	run     *run
}

// Open starts a monitored block of length steps (negative when unknown).
func (m *Monitor) Open(length int) *Scope {
	s := &Scope{monitor: m, run: m.begin(length)}
	if s.run != nil {
		s.run.start()
	}
	return s
}

// Task returns the task of the block, or nil for a pass-through scope.
func (s *Scope) Task() *progress.Task {
	if s.run == nil {
		return nil
	}
	return s.run.task
}

// Update records progress p, notifies when the rule fires, and reports
// whether the known total has been reached.
func (s *Scope) Update(p int) bool {
	if s.run == nil {
		return false
	}
	return s.run.step(p)
}

// Close ends the block and returns err unchanged. The block succeeds when
// err is nil and the total, if known, was reached. Later calls only return
// err.
func (s *Scope) Close(err error) error {
	if s.run == nil || s.run.done {
		return err
	}
	t := s.run.task
	total, known := t.Total()
	success := err == nil && (!known || t.Progress() >= total)
	s.run.finish(success, err)
	return err
}

// Restart reopens the block for a retry. An attempt still open is first
// closed as aborted. The task keeps its identity; the rule and hook are
// rebuilt so the retry starts from a clean state.
func (s *Scope) Restart() {
	if s.run == nil {
		return
	}
	s.run.finish(false, nil)
	length, ok := s.run.task.Total()
	if !ok {
		length = progress.Unbounded
	}
	fresh := s.monitor.build(length)
	if fresh == nil {
		s.run = nil
		return
	}
	fresh.task = s.run.task
	s.run = fresh
	s.run.start()
}

// Run executes fn inside a scope and returns its error unchanged. A panic in
// fn closes the scope with a *progress.PanicError and is re-raised.
func (m *Monitor) Run(length int, fn func(*Scope) error) error {
	s := m.Open(length)
	defer s.settle()
	return s.Close(fn(s))
}

// settle must be deferred directly; see run.settle.
func (s *Scope) settle() {
	r := s.run
	if r == nil || r.done {
		return
	}
	if v := recover(); v != nil {
		r.finish(false, &progress.PanicError{Value: v, Stack: debug.Stack()})
		panic(v)
	}
	r.finish(false, nil)
}
