package monitor

import "github.com/JakeFAU/progress-monitor/internal/progress"

// Call runs fn as a single-step monitored task named name. args are
// attached to the events for hooks such as the report hook, together with
// the result once fn succeeds. The result and error of fn are returned
// unchanged.
func Call[R any](m *Monitor, name string, fn func() (R, error), args ...any) (R, error) {
	r := m.begin(1)
	if r == nil {
		return fn()
	}
	r.call = &progress.Call{Name: name, Args: args}
	r.start()
	defer r.settle()
	res, err := fn()
	if err != nil {
		r.finish(false, err)
		return res, err
	}
	r.task.Update(1)
	r.call.Result = res
	r.finish(true, nil)
	return res, nil
}

// Wrap returns fn monitored by m; every invocation is a separate run.
func Wrap[A, R any](m *Monitor, name string, fn func(A) (R, error)) func(A) (R, error) {
	if !m.Enabled() {
		return fn
	}
	return func(a A) (R, error) {
		return Call(m, name, func() (R, error) { return fn(a) }, a)
	}
}
