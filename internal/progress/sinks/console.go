package sinks

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// ConsoleSink appends every line to a writer.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// Console creates a ConsoleSink writing to w.
func Console(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Notify writes text followed by a newline.
func (s *ConsoleSink) Notify(text string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, text+"\n"); err != nil {
		return fmt.Errorf("console sink write: %w", err)
	}
	return nil
}

// OverwriteSink rewrites a single terminal line in place using backspaces.
// It is only meaningful for single-line text.
type OverwriteSink struct {
	mu      sync.Mutex
	w       io.Writer
	lastLen int
}

// Overwrite creates an OverwriteSink writing to w.
func Overwrite(w io.Writer) *OverwriteSink {
	return &OverwriteSink{w: w}
}

// Notify erases the previous line, writes text and pads with blanks when the
// new line is shorter. The final line is terminated by a newline.
func (s *OverwriteSink) Notify(text string, final bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	b.WriteString(strings.Repeat("\b", s.lastLen))
	b.WriteString(text)
	n := utf8.RuneCountInString(text)
	if diff := s.lastLen - n; diff > 0 {
		b.WriteString(strings.Repeat(" ", diff))
		b.WriteString(strings.Repeat("\b", diff))
	}
	s.lastLen = n
	if final {
		b.WriteString("\n")
		s.lastLen = 0
	}
	if _, err := io.WriteString(s.w, b.String()); err != nil {
		return fmt.Errorf("overwrite sink write: %w", err)
	}
	return nil
}

var (
	_ progress.Sink = (*ConsoleSink)(nil)
	_ progress.Sink = (*OverwriteSink)(nil)
)
