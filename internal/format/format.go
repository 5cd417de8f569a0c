// Package format turns a progress.Event into a short descriptive fragment
// such as "Task # 3: load", "12/99" or "elapsed time: 1m 2.00s".
//
// Several formatters keep per-run state (the progress bar ordinal, the
// remaining-time moving average). Build them fresh for every run.
package format

import (
	"github.com/JakeFAU/progress-monitor/internal/fallback"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// Formatter renders one fragment of a notification.
type Formatter interface {
	Format(ev progress.Event) string
}

// Func adapts a function to the Formatter interface.
type Func func(ev progress.Event) string

// Format calls f.
func (f Func) Format(ev progress.Event) string { return f(ev) }

// Kind names a built-in formatter.
type Kind string

// Built-in formatter kinds.
const (
	KindTask        Kind = "task"
	KindHost        Kind = "host"
	KindThread      Kind = "thread"
	KindPID         Kind = "pid"
	KindIteration   Kind = "iteration"
	KindProgressBar Kind = "progressbar"
	KindCompletion  Kind = "completion"
	KindElapsed     Kind = "elapsed"
	KindTime        Kind = "time"
	KindChunk       Kind = "chunk"
	KindException   Kind = "exception"
)

// DefaultPrecision is the number of sub-second decimals of rendered durations.
const DefaultPrecision = 2

// Params holds every knob a formatter factory may need. Nil means unset.
type Params struct {
	// Refresh recomputes identity values (host, goroutine, pid) on every call
	// instead of once at construction.
	Refresh bool
	// Precision is the number of sub-second decimals of durations.
	Precision *int

	// Notifications is the number of segments of the progress bar.
	Notifications *int
	Fill          string
	Blank         string
	Template      string

	// Length is the number of elements of the run, used by the time estimator.
	Length    *int
	DecayRate *float64
	Elapsed   *bool
	Total     *bool

	ChunkSize *int
	TotalSize *int64
}

func (p Params) precision() int {
	if p.Precision == nil || *p.Precision < 0 {
		return DefaultPrecision
	}
	return *p.Precision
}

// NewRegistry returns a registry holding every built-in formatter. The
// progress bar falls back to the iteration counter and the time estimator to
// the elapsed time when their sizing parameters are missing.
func NewRegistry() *fallback.Registry[Params, Formatter] {
	reg := fallback.NewRegistry[Params, Formatter]()
	reg.Register(string(KindTask), NewTask, "")
	reg.Register(string(KindHost), NewHost, "")
	reg.Register(string(KindThread), NewThread, "")
	reg.Register(string(KindPID), NewPID, "")
	reg.Register(string(KindIteration), NewIteration, "")
	reg.Register(string(KindProgressBar), NewProgressBar, string(KindIteration))
	reg.Register(string(KindCompletion), NewCompletion, "")
	reg.Register(string(KindElapsed), NewElapsed, "")
	reg.Register(string(KindTime), NewTime, string(KindElapsed))
	reg.Register(string(KindChunk), NewChunk, "")
	reg.Register(string(KindException), NewException, "")
	return reg
}
