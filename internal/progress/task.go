package progress

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/progress-monitor/internal/clock"
)

// Unbounded is the total passed to NewTask when the number of steps is unknown.
const Unbounded = -1

var taskCounter atomic.Int64

// State is the lifecycle position of a Task.
type State int

// Task lifecycle states.
const (
	StateReady State = iota
	StateRunning
	StateDone
	StateAborted
)

// String returns the upper-case state label.
func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateDone:
		return "DONE"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

func (s State) describe() string {
	switch s {
	case StateReady:
		return "is ready"
	case StateRunning:
		return "is running"
	case StateDone:
		return "is completed"
	case StateAborted:
		return "has been aborted"
	default:
		return "unknown status"
	}
}

// TaskOption customizes a Task at construction.
type TaskOption func(*Task)

// WithClock overrides the clock used for start and end timestamps.
func WithClock(c clock.Clock) TaskOption {
	return func(t *Task) {
		t.clock = clock.OrSystem(c)
	}
}

// Task is the mutable record of one monitored run. It is owned by the
// wrapper that created it; everything else only reads it.
type Task struct {
	id    int64
	runID uuid.UUID
	name  string
	total int
	clock clock.Clock

	progress int
	state    State
	start    time.Time
	end      time.Time
}

// NewTask creates a READY task. A negative total marks the task unbounded and
// an empty name is replaced by "Unnamed_task.<id>".
func NewTask(name string, total int, opts ...TaskOption) *Task {
	t := &Task{
		id:    taskCounter.Add(1) - 1,
		total: total,
		clock: clock.OrSystem(nil),
	}
	for _, opt := range opts {
		opt(t)
	}
	if total < 0 {
		t.total = Unbounded
	}
	if name == "" {
		name = "Unnamed_task." + strconv.FormatInt(t.id, 10)
	}
	t.name = name
	t.runID = newRunID()
	t.start = t.clock.Now()
	return t
}

func newRunID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// ID returns the process-wide sequence number of the task.
func (t *Task) ID() int64 { return t.id }

// RunID returns the unique identifier of the current run. Start assigns a new one.
func (t *Task) RunID() uuid.UUID { return t.runID }

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Total returns the number of steps and whether it is known.
func (t *Task) Total() (int, bool) {
	if t.total < 0 {
		return 0, false
	}
	return t.total, true
}

// Progress returns the current step count.
func (t *Task) Progress() int { return t.progress }

// State returns the lifecycle state.
func (t *Task) State() State { return t.state }

// StartTime returns when the task was last started.
func (t *Task) StartTime() time.Time { return t.start }

// EndTime returns when the task was closed, or the zero time while open.
func (t *Task) EndTime() time.Time { return t.end }

// Now reads the task clock.
func (t *Task) Now() time.Time { return t.clock.Now() }

// IsCompleted reports whether the task finished successfully.
func (t *Task) IsCompleted() bool { return t.state == StateDone }

// Closed reports whether the task reached DONE or ABORTED.
func (t *Task) Closed() bool { return t.state == StateDone || t.state == StateAborted }

// Duration is the time between start and close, or between start and now
// while the task is open. It is never negative.
func (t *Task) Duration() time.Duration {
	end := t.end
	if !t.Closed() {
		end = t.clock.Now()
	}
	d := end.Sub(t.start)
	if d < 0 {
		return 0
	}
	return d
}

// Start moves the task to RUNNING, resets its progress and timestamps and
// assigns a fresh run id.
func (t *Task) Start() {
	t.progress = 0
	t.state = StateRunning
	t.start = t.clock.Now()
	t.end = time.Time{}
	t.runID = newRunID()
}

// Update records progress and reports whether the known total has been
// reached. It never closes the task and is a no-op once the task is closed.
func (t *Task) Update(progress int) bool {
	if t.Closed() {
		return t.IsCompleted()
	}
	if progress > t.progress {
		t.progress = progress
	}
	return t.total >= 0 && t.progress >= t.total
}

// Close moves the task to DONE on success, ABORTED otherwise, and stamps the
// end time.
func (t *Task) Close(success bool) {
	if success {
		t.state = StateDone
	} else {
		t.state = StateAborted
	}
	t.end = t.clock.Now()
}

// String describes the task, e.g. "Task #3 'load' (4/10) is running.".
func (t *Task) String() string {
	total := "???"
	if n, ok := t.Total(); ok {
		total = strconv.Itoa(n)
	}
	return fmt.Sprintf("Task #%d '%s' (%d/%s) %s.", t.id, t.name, t.progress, total, t.state.describe())
}
