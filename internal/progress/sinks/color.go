package sinks

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// ColorSink appends lines to a writer, colored by outcome: running lines in
// cyan, the final line in green, or red when the run failed.
type ColorSink struct {
	mu      sync.Mutex
	w       io.Writer
	running *color.Color
	done    *color.Color
	failed  *color.Color
}

// Color creates a ColorSink writing to w. Coloring follows fatih/color's
// terminal detection and NO_COLOR handling.
func Color(w io.Writer) *ColorSink {
	return &ColorSink{
		w:       w,
		running: color.New(color.FgCyan),
		done:    color.New(color.FgGreen, color.Bold),
		failed:  color.New(color.FgRed, color.Bold),
	}
}

// Notify writes text in the running color, or the done color when final.
func (s *ColorSink) Notify(text string, final bool) error {
	c := s.running
	if final {
		c = s.done
	}
	return s.write(c, text)
}

// NotifyEvent picks the failure color when ev carries an error.
func (s *ColorSink) NotifyEvent(text string, ev progress.Event) error {
	c := s.running
	switch {
	case ev.Err != nil || (ev.Task != nil && ev.Task.State() == progress.StateAborted):
		c = s.failed
	case ev.Final():
		c = s.done
	}
	return s.write(c, text)
}

func (s *ColorSink) write(c *color.Color, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, c.Sprint(text)+"\n"); err != nil {
		return fmt.Errorf("color sink write: %w", err)
	}
	return nil
}

var _ progress.EventSink = (*ColorSink)(nil)
