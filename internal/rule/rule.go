// Package rule decides when a monitored run should emit a notification.
//
// A Rule is stateful and scoped to a single run: build a fresh one for every
// task and never share it between goroutines.
package rule

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/JakeFAU/progress-monitor/internal/clock"
	"github.com/JakeFAU/progress-monitor/internal/fallback"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// Rule reports whether the task state warrants a notification now.
type Rule interface {
	ShouldNotify(t *progress.Task) bool
}

// Func adapts a function to the Rule interface.
type Func func(t *progress.Task) bool

// ShouldNotify calls f.
func (f Func) ShouldNotify(t *progress.Task) bool { return f(t) }

// Kind names a built-in rule.
type Kind string

// Built-in rule kinds, from most to least demanding.
const (
	KindRate     Kind = "rate"
	KindSpan     Kind = "span"
	KindPeriodic Kind = "periodic"
	KindAlways   Kind = "always"
)

// Params holds every knob a rule factory may need. Nil means unset.
type Params struct {
	Period *time.Duration
	Span   *int
	Rate   *float64
	// Length is the number of elements of the run; nil when unknown.
	Length *int
	Clock  clock.Clock
}

// Always notifies on every check.
type Always struct{}

// NewAlways builds an Always rule. It never fails.
func NewAlways(Params) (Rule, error) {
	return Always{}, nil
}

// ShouldNotify always returns true.
func (Always) ShouldNotify(*progress.Task) bool { return true }

// Periodic notifies at most once per period of wall-clock time. The first
// period starts when the rule is built.
type Periodic struct {
	period time.Duration
	clock  clock.Clock
	last   time.Time
}

// NewPeriodic builds a Periodic rule from p.Period.
func NewPeriodic(p Params) (Rule, error) {
	if p.Period == nil {
		return nil, fallback.Missing(string(KindPeriodic), "period")
	}
	if *p.Period < 0 {
		return nil, fmt.Errorf("periodic rule: period must be >= 0, got %s", *p.Period)
	}
	clk := clock.OrSystem(p.Clock)
	return &Periodic{period: *p.Period, clock: clk, last: clk.Now()}, nil
}

// ShouldNotify reports whether a full period elapsed since the last true result.
func (r *Periodic) ShouldNotify(*progress.Task) bool {
	now := r.clock.Now()
	if now.Sub(r.last) >= r.period {
		r.last = now
		return true
	}
	return false
}

// Span notifies every span steps, never at step 0.
type Span struct {
	span int
}

// NewSpan builds a Span rule from p.Span.
func NewSpan(p Params) (Rule, error) {
	if p.Span == nil {
		return nil, fallback.Missing(string(KindSpan), "span")
	}
	if *p.Span <= 0 {
		return nil, fmt.Errorf("span rule: span must be > 0, got %d", *p.Span)
	}
	return &Span{span: *p.Span}, nil
}

// ShouldNotify reports whether progress is a positive multiple of the span.
func (r *Span) ShouldNotify(t *progress.Task) bool {
	p := t.Progress()
	return p > 0 && p%r.span == 0
}

// Rate notifies whenever the fraction of the run covered since the last
// notification reaches the configured rate.
type Rate struct {
	rate   float64
	length int
	last   int
}

// NewRate builds a Rate rule from p.Rate and p.Length.
func NewRate(p Params) (Rule, error) {
	if p.Rate == nil {
		return nil, fallback.Missing(string(KindRate), "rate")
	}
	if err := validateRate(*p.Rate); err != nil {
		return nil, err
	}
	if p.Length == nil || *p.Length < 0 {
		return nil, fallback.Missing(string(KindRate), "length")
	}
	if *p.Length == 0 {
		return nil, errors.New("rate rule: length must be > 0")
	}
	return &Rate{rate: *p.Rate, length: *p.Length}, nil
}

// ShouldNotify reports whether progress advanced by at least rate*length
// since the last notification.
func (r *Rate) ShouldNotify(t *progress.Task) bool {
	p := t.Progress()
	delta := float64(p-r.last) / float64(r.length)
	if delta >= r.rate {
		r.last = p
		return true
	}
	return false
}

// Notifications returns the expected number of in-run notifications.
func (r *Rate) Notifications() int {
	return NotificationCount(r.rate)
}

// NotificationCount is ceil(1/rate), the number of notifications a Rate rule
// is expected to emit over a run.
func NotificationCount(rate float64) int {
	if rate <= 0 {
		return 0
	}
	return int(math.Ceil(1 / rate))
}

func validateRate(rate float64) error {
	if rate <= 0 || rate > 1 || math.IsNaN(rate) {
		return fmt.Errorf("rate rule: rate must be in (0, 1], got %g", rate)
	}
	return nil
}

// NewRegistry returns a registry holding the built-in rules chained
// rate -> span -> periodic -> always.
func NewRegistry() *fallback.Registry[Params, Rule] {
	reg := fallback.NewRegistry[Params, Rule]()
	reg.Register(string(KindRate), NewRate, string(KindSpan))
	reg.Register(string(KindSpan), NewSpan, string(KindPeriodic))
	reg.Register(string(KindPeriodic), NewPeriodic, string(KindAlways))
	reg.Register(string(KindAlways), NewAlways, "")
	return reg
}

var (
	_ Rule = Always{}
	_ Rule = (*Periodic)(nil)
	_ Rule = (*Span)(nil)
	_ Rule = (*Rate)(nil)
	_ Rule = Func(nil)
)
