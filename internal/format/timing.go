package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/JakeFAU/progress-monitor/internal/fallback"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// DefaultDecayRate is the smoothing factor of the remaining-time estimator.
const DefaultDecayRate = 0.1

// NewElapsed renders "elapsed time: <duration>".
func NewElapsed(p Params) (Formatter, error) {
	precision := p.precision()
	return Func(func(ev progress.Event) string {
		return "elapsed time: " + FormatDuration(ev.Task.Duration().Seconds(), precision)
	}), nil
}

// NewCompletion renders "Done in <duration>" on successful completion and
// nothing otherwise.
func NewCompletion(p Params) (Formatter, error) {
	precision := p.precision()
	return Func(func(ev progress.Event) string {
		if !ev.Task.IsCompleted() || ev.Err != nil {
			return ""
		}
		return "Done in " + FormatDuration(ev.Task.Duration().Seconds(), precision)
	}), nil
}

// NewException renders "Aborted after <duration> (Reason: <message>)" when
// the event carries an error and nothing otherwise.
func NewException(p Params) (Formatter, error) {
	precision := p.precision()
	return Func(func(ev progress.Event) string {
		if ev.Err == nil {
			return ""
		}
		d := FormatDuration(ev.Task.Duration().Seconds(), precision)
		return "Aborted after " + d + " (Reason: " + ev.Err.Error() + ")"
	}), nil
}

// Time estimates the remaining and total run time from an exponential moving
// average of the throughput observed between notifications.
type Time struct {
	length    int
	decay     float64
	precision int
	elapsed   bool
	total     bool

	hasSample bool
	lastAt    time.Time
	lastP     int
	hasSpeed  bool
	avgSpeed  float64
}

// NewTime requires p.Length. p.DecayRate must lie in (0, 1].
func NewTime(p Params) (Formatter, error) {
	decay := DefaultDecayRate
	if p.DecayRate != nil {
		if *p.DecayRate <= 0 || *p.DecayRate > 1 || math.IsNaN(*p.DecayRate) {
			return nil, fmt.Errorf("time formatter: decay_rate must be in (0, 1], got %g", *p.DecayRate)
		}
		decay = *p.DecayRate
	}
	if p.Length == nil || *p.Length < 0 {
		return nil, fallback.Missing(string(KindTime), "length")
	}
	t := &Time{
		length:    *p.Length,
		decay:     decay,
		precision: p.precision(),
		elapsed:   true,
		total:     true,
	}
	if p.Elapsed != nil {
		t.elapsed = *p.Elapsed
	}
	if p.Total != nil {
		t.total = *p.Total
	}
	return t, nil
}

// Format renders the elapsed time followed, while the run is in progress and
// a previous sample exists, by the remaining and total estimates.
func (t *Time) Format(ev progress.Event) string {
	task := ev.Task
	now := task.Now()
	p := task.Progress()
	elapsed := task.Duration()

	var parts []string
	if t.elapsed {
		parts = append(parts, "elapsed time: "+FormatDuration(elapsed.Seconds(), t.precision))
	}

	if p == 0 || !t.hasSample {
		t.hasSample = true
		t.lastAt, t.lastP = now, p
		return strings.Join(parts, " ")
	}
	prevAt, prevP := t.lastAt, t.lastP
	t.lastAt, t.lastP = now, p
	if ev.Final() {
		return strings.Join(parts, " ")
	}

	dt := now.Sub(prevAt).Seconds()
	if dt <= 0 {
		return strings.Join(parts, " ")
	}
	speed := float64(p-prevP) / dt
	if !t.hasSpeed {
		t.avgSpeed = speed
		t.hasSpeed = true
	} else {
		t.avgSpeed = t.decay*speed + (1-t.decay)*t.avgSpeed
	}
	if t.avgSpeed <= 0 {
		return strings.Join(parts, " ")
	}

	remaining := float64(t.length-p) / t.avgSpeed
	if remaining < 0 {
		remaining = 0
	}
	parts = append(parts, "remaining time (estimation): "+FormatDuration(remaining, t.precision))
	if t.total {
		parts = append(parts, "total time (estimation): "+FormatDuration(remaining+elapsed.Seconds(), t.precision))
	}
	return strings.Join(parts, " ")
}

var _ Formatter = (*Time)(nil)
