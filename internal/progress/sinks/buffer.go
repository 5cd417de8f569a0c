package sinks

import (
	"sync"

	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// BufferSink accumulates lines and hands the whole sequence to a consumer
// on the final notification.
type BufferSink struct {
	mu    sync.Mutex
	dest  func([]string)
	lines []string
}

// StoreTillEnd creates a BufferSink flushing to dest.
func StoreTillEnd(dest func([]string)) *BufferSink {
	return &BufferSink{dest: dest}
}

// Notify stores text and flushes on final. The buffer starts empty again
// after a flush.
func (s *BufferSink) Notify(text string, final bool) error {
	s.mu.Lock()
	s.lines = append(s.lines, text)
	if !final {
		s.mu.Unlock()
		return nil
	}
	lines := s.lines
	s.lines = nil
	s.mu.Unlock()
	if s.dest != nil {
		s.dest(lines)
	}
	return nil
}

var _ progress.Sink = (*BufferSink)(nil)
