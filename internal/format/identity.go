package format

import (
	"bytes"
	"os"
	"os/user"
	"runtime"
	"strconv"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// NewTask renders "Task # <id>: <name>".
func NewTask(Params) (Formatter, error) {
	return Func(func(ev progress.Event) string {
		return "Task # " + strconv.FormatInt(ev.Task.ID(), 10) + ": " + ev.Task.Name()
	}), nil
}

// NewHost renders "<user>@<hostname>".
func NewHost(p Params) (Formatter, error) {
	return snapshot(p.Refresh, hostIdentity), nil
}

// NewThread renders the calling goroutine, "Goroutine <id>".
func NewThread(p Params) (Formatter, error) {
	return snapshot(p.Refresh, func() string {
		return "Goroutine " + strconv.FormatUint(goroutineID(), 10)
	}), nil
}

// NewPID renders the process id.
func NewPID(p Params) (Formatter, error) {
	return snapshot(p.Refresh, func() string {
		return strconv.Itoa(os.Getpid())
	}), nil
}

// snapshot evaluates compute once, or on every call when refresh is set.
func snapshot(refresh bool, compute func() string) Formatter {
	if refresh {
		return Func(func(progress.Event) string { return compute() })
	}
	value := compute()
	return Func(func(progress.Event) string { return value })
}

func hostIdentity() string {
	name := "unknown"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	hostname := "localhost"
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		hostname = info.Hostname
	} else if h, err := os.Hostname(); err == nil {
		hostname = h
	}
	return name + "@" + hostname
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the id from the first line of the current stack trace.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, goroutinePrefix)
	if i := bytes.IndexByte(buf, ' '); i > 0 {
		buf = buf[:i]
	}
	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
