package sinks

import (
	"errors"

	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// MultiSink fans every notification out to several sinks. All sinks are
// called even when some fail.
type MultiSink struct {
	sinks []progress.Sink
}

// Multi creates a MultiSink. Nil entries are skipped.
func Multi(sinks ...progress.Sink) *MultiSink {
	out := make([]progress.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

// Notify forwards to every sink and joins their errors.
func (m *MultiSink) Notify(text string, final bool) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Notify(text, final); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyEvent forwards to every sink, passing ev to those that accept it.
func (m *MultiSink) NotifyEvent(text string, ev progress.Event) error {
	var errs []error
	for _, s := range m.sinks {
		if err := progress.Deliver(s, text, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of sub-sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

var _ progress.EventSink = (*MultiSink)(nil)
