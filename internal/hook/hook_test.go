package hook

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/progress-monitor/internal/clock/fake"
	"github.com/JakeFAU/progress-monitor/internal/format"
	"github.com/JakeFAU/progress-monitor/internal/progress"
	"github.com/JakeFAU/progress-monitor/internal/progress/sinks"
)

type recorder struct {
	texts  []string
	finals []bool
}

func (r *recorder) Notify(text string, final bool) error {
	r.texts = append(r.texts, text)
	r.finals = append(r.finals, final)
	return nil
}

func TestFormattedHook(t *testing.T) {
	t.Parallel()

	iteration, err := format.NewIteration(format.Params{})
	require.NoError(t, err)
	rec := &recorder{}
	h := Formatted(iteration, rec, nil)

	task := progress.NewTask("fmt", 3)
	task.Start()
	h.Handle(progress.Event{Task: task})
	task.Update(2)
	task.Close(true)
	h.Handle(progress.Event{Task: task})

	require.Equal(t, []string{"0/2", "2/2"}, rec.texts)
	require.Equal(t, []bool{false, true}, rec.finals)
}

func TestFormattedHookLogsSinkErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	sink := progress.SinkFunc(func(string, bool) error { return errors.New("full") })
	h := Formatted(format.Func(func(progress.Event) string { return "x" }), sink, zap.New(core))

	task := progress.NewTask("warn", 1)
	task.Start()
	require.NotPanics(t, func() { h.Handle(progress.Event{Task: task}) })
	require.Equal(t, 1, logs.FilterMessage("progress sink notify failed").Len())
}

func TestListener(t *testing.T) {
	t.Parallel()

	var order []string
	l := NewListener(
		Func(func(progress.Event) { order = append(order, "a") }),
		nil,
		Func(func(progress.Event) { order = append(order, "b") }),
	)
	l.Add(Func(func(progress.Event) { order = append(order, "c") }))
	require.Equal(t, 3, l.Len())

	l.Handle(progress.Event{Task: progress.NewTask("l", 1)})
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestReportHook(t *testing.T) {
	t.Parallel()

	clk := fake.New(time.Date(2015, time.January, 8, 10, 0, 0, 0, time.UTC))
	var buf bytes.Buffer
	h, err := Report(sinks.Console(&buf), ReportOptions{})
	require.NoError(t, err)

	task := progress.NewTask("sum", 1, progress.WithClock(clk))
	task.Start()
	call := &progress.Call{Name: "sum", Args: []any{1, 2}}
	h.Handle(progress.Event{Task: task, Call: call})
	require.Empty(t, buf.String(), "only the final event is reported")

	clk.Advance(90 * time.Second)
	task.Update(1)
	task.Close(true)
	call.Result = 3
	h.Handle(progress.Event{Task: task, Call: call})

	out := buf.String()
	require.Contains(t, out, fmt.Sprintf("Task name: Task # %d: sum\n", task.ID()))
	require.Contains(t, out, "Name: sum\nArgs: [1 2]\n")
	require.Contains(t, out, "Result\n======\n3\n")
	require.Contains(t, out, "Exception\n=========\nNone\n")
	require.Contains(t, out, "Started: Thu Jan  8 10:00:00 2015 (1 minute ago)\n")
	require.Contains(t, out, "Duration: 1m 30.00s\n")
	require.True(t, strings.HasPrefix(out, "Meta\n====\nHost: "))
}

func TestReportHookFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	h, err := Report(rec, ReportOptions{FormatResult: func(v any) string { return fmt.Sprintf("<%v>", v) }})
	require.NoError(t, err)

	task := progress.NewTask("div", 1)
	task.Start()
	task.Close(false)
	h.Handle(progress.Event{Task: task, Err: errors.New("division by zero"), Call: &progress.Call{Name: "div"}})

	require.Len(t, rec.texts, 1)
	require.Equal(t, []bool{true}, rec.finals)
	require.Contains(t, rec.texts[0], "Exception\n=========\ndivision by zero\n")
	require.Contains(t, rec.texts[0], "Result\n======\n<<nil>>\n")
}

func TestMetricsHook(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	task := progress.NewTask("metrics", 2)
	task.Start()
	h := m.Hook("jobs")
	h.Handle(progress.Event{Task: task})
	require.Equal(t, 1.0, testutil.ToFloat64(m.tasksRunning.WithLabelValues("jobs")))

	task.Update(1)
	h.Handle(progress.Event{Task: task})
	task.Close(true)
	h.Handle(progress.Event{Task: task})

	failed := progress.NewTask("metrics", 2)
	failed.Start()
	h2 := m.Hook("jobs")
	h2.Handle(progress.Event{Task: failed})
	failed.Close(false)
	h2.Handle(progress.Event{Task: failed, Err: errors.New("boom")})

	require.Equal(t, 2.0, testutil.ToFloat64(m.tasksStarted.WithLabelValues("jobs")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.tasksCompleted.WithLabelValues("jobs", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.tasksCompleted.WithLabelValues("jobs", "error")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.tasksRunning.WithLabelValues("jobs")))
	require.Equal(t, 5.0, testutil.ToFloat64(m.notifications.WithLabelValues("jobs")))
	require.Equal(t, 2, testutil.CollectAndCount(m.taskRuntime, "progress_task_runtime_seconds"))

	_, err = NewMetrics(reg)
	require.Error(t, err, "collectors cannot be registered twice")
}
