package hook

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/JakeFAU/progress-monitor/internal/compose"
	"github.com/JakeFAU/progress-monitor/internal/format"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// ReportLayout is the template rendered by the report hook.
const ReportLayout = `Meta
====
Host: {$host}
Pid: {$pid}
Thread: {$thread}
Task name: {$task}

Function
========
Name: {fname}
Args: {fargs}

Result
======
{fresult}

Exception
=========
{except}

Time
====
Started: {start}
Duration: {duration}
`

// ReportOptions customizes the report hook.
type ReportOptions struct {
	// FormatResult renders the callee result; defaults to fmt.Sprint.
	FormatResult func(any) string
	// Precision is the number of sub-second decimals of the duration.
	Precision *int
	Logger    *zap.Logger
}

// Report returns a hook that ignores every event but the final one, on which
// it renders a multi-section report of the monitored call and delivers it to
// sink.
func Report(sink progress.Sink, opts ReportOptions) (Hook, error) {
	fmtResult := opts.FormatResult
	if fmtResult == nil {
		fmtResult = func(v any) string { return fmt.Sprint(v) }
	}
	params := format.Params{Refresh: true}
	formatters := map[string]format.Formatter{
		"fname": format.Func(func(ev progress.Event) string {
			if ev.Call == nil {
				return ""
			}
			return ev.Call.Name
		}),
		"fargs": format.Func(func(ev progress.Event) string {
			if ev.Call == nil {
				return "[]"
			}
			return fmt.Sprint(ev.Call.Args)
		}),
		"fresult": format.Func(func(ev progress.Event) string {
			if ev.Call == nil {
				return fmtResult(nil)
			}
			return fmtResult(ev.Call.Result)
		}),
		"except": format.Func(func(ev progress.Event) string {
			if ev.Err == nil {
				return "None"
			}
			return ev.Err.Error()
		}),
		"start": format.Func(func(ev progress.Event) string {
			start := ev.Task.StartTime()
			return start.Format(time.ANSIC) + " (" + humanize.RelTime(start, ev.Task.Now(), "ago", "from now") + ")"
		}),
	}
	builders := map[string]func(format.Params) (format.Formatter, error){
		"$host":   format.NewHost,
		"$pid":    format.NewPID,
		"$thread": format.NewThread,
		"$task":   format.NewTask,
	}
	for name, build := range builders {
		f, err := build(params)
		if err != nil {
			return nil, fmt.Errorf("report hook %s: %w", name, err)
		}
		formatters[name] = f
	}
	precision := format.DefaultPrecision
	if opts.Precision != nil {
		precision = *opts.Precision
	}
	formatters["duration"] = format.Func(func(ev progress.Event) string {
		return format.FormatDuration(ev.Task.Duration().Seconds(), precision)
	})
	composer, err := compose.New(ReportLayout, formatters)
	if err != nil {
		return nil, fmt.Errorf("report hook layout: %w", err)
	}
	formatted := Formatted(composer, sink, opts.Logger)
	return Func(func(ev progress.Event) {
		if !ev.Final() {
			return
		}
		formatted.Handle(ev)
	}), nil
}
