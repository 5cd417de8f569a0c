package sinks

import (
	"sort"
	"sync"
	"time"

	"github.com/JakeFAU/progress-monitor/internal/clock"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// Entry is the latest known line of one monitor.
type Entry struct {
	Monitor   string    `json:"monitor"`
	RunID     string    `json:"run_id,omitempty"`
	Task      string    `json:"task,omitempty"`
	State     string    `json:"state,omitempty"`
	Progress  int       `json:"progress"`
	Total     *int      `json:"total,omitempty"`
	Text      string    `json:"text"`
	Final     bool      `json:"final"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Board keeps the latest line of every monitor for status endpoints. It is
// safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	clock   clock.Clock
	entries map[string]Entry
}

// NewBoard creates an empty board. A nil clock uses the system clock.
func NewBoard(c clock.Clock) *Board {
	return &Board{clock: clock.OrSystem(c), entries: make(map[string]Entry)}
}

// Sink returns a sink recording lines under monitor.
func (b *Board) Sink(monitor string) *BoardSink {
	return &BoardSink{board: b, monitor: monitor}
}

// Get returns the entry of monitor.
func (b *Board) Get(monitor string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[monitor]
	return e, ok
}

// Snapshot returns every entry ordered by monitor name.
func (b *Board) Snapshot() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Monitor < out[j].Monitor })
	return out
}

func (b *Board) put(e Entry) {
	e.UpdatedAt = b.clock.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[e.Monitor] = e
}

// BoardSink records lines of a single monitor on a Board.
type BoardSink struct {
	board   *Board
	monitor string
}

// Notify records text.
func (s *BoardSink) Notify(text string, final bool) error {
	s.board.put(Entry{Monitor: s.monitor, Text: text, Final: final})
	return nil
}

// NotifyEvent records text along with the task state of ev.
func (s *BoardSink) NotifyEvent(text string, ev progress.Event) error {
	e := Entry{Monitor: s.monitor, Text: text, Final: ev.Final()}
	if t := ev.Task; t != nil {
		e.RunID = t.RunID().String()
		e.Task = t.Name()
		e.State = t.State().String()
		e.Progress = t.Progress()
		if n, ok := t.Total(); ok {
			e.Total = &n
		}
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	s.board.put(e)
	return nil
}

var _ progress.EventSink = (*BoardSink)(nil)
