package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JakeFAU/progress-monitor/internal/fallback"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// DefaultBarTemplate lays out the progress bar segments and percentage.
const DefaultBarTemplate = "[{fill}>{blank}] {progress}%"

// NewIteration renders "<progress>/<last index>" while running and
// "<progress>/<progress>" once the run is over. The last index is "???" for
// unbounded runs.
func NewIteration(Params) (Formatter, error) {
	return Func(func(ev progress.Event) string {
		p := ev.Task.Progress()
		bound := "???"
		if ev.Task.IsCompleted() || ev.Err != nil {
			bound = strconv.Itoa(p)
		} else if total, ok := ev.Task.Total(); ok {
			bound = strconv.Itoa(total - 1)
		}
		return strconv.Itoa(p) + "/" + bound
	}), nil
}

// ProgressBar draws a bar with one segment per expected notification. It
// counts its own calls; the notification carrying an error reuses the
// previous ordinal since no further progress was made.
type ProgressBar struct {
	segments int
	fill     string
	blank    string
	template string
	ordinal  int
}

// NewProgressBar requires p.Notifications.
func NewProgressBar(p Params) (Formatter, error) {
	if p.Notifications == nil {
		return nil, fallback.Missing(string(KindProgressBar), "notifications")
	}
	if *p.Notifications <= 0 {
		return nil, fmt.Errorf("progressbar formatter: notifications must be > 0, got %d", *p.Notifications)
	}
	bar := &ProgressBar{
		segments: *p.Notifications,
		fill:     p.Fill,
		blank:    p.Blank,
		template: p.Template,
	}
	if bar.fill == "" {
		bar.fill = "="
	}
	if bar.blank == "" {
		bar.blank = "."
	}
	if bar.template == "" {
		bar.template = DefaultBarTemplate
	}
	return bar, nil
}

// Format renders the bar for the current ordinal and advances it.
func (b *ProgressBar) Format(ev progress.Event) string {
	ordinal := b.ordinal
	if ev.Err != nil {
		ordinal--
	}
	b.ordinal = ordinal + 1
	filled := min(max(ordinal, 0), b.segments)
	pct := float64(ordinal) / float64(b.segments) * 100
	return strings.NewReplacer(
		"{fill}", strings.Repeat(b.fill, filled),
		"{blank}", strings.Repeat(b.blank, b.segments-filled),
		"{progress}", fmt.Sprintf("%.2f", pct),
	).Replace(b.template)
}

// Chunk renders processed bytes against the total, counting ChunkSize bytes
// per step.
type Chunk struct {
	chunkSize int64
	totalSize *int64
	totalStr  string
}

// NewChunk requires p.ChunkSize. Without p.TotalSize the total is inferred
// from the task length on the first call at progress 0.
func NewChunk(p Params) (Formatter, error) {
	if p.ChunkSize == nil {
		return nil, fallback.Missing(string(KindChunk), "chunk_size")
	}
	if *p.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk formatter: chunk_size must be > 0, got %d", *p.ChunkSize)
	}
	c := &Chunk{chunkSize: int64(*p.ChunkSize), totalStr: "???"}
	if p.TotalSize != nil {
		total := *p.TotalSize
		c.totalSize = &total
		c.totalStr = FormatSize(float64(total))
	}
	return c, nil
}

// Format renders "<done>/<total>", or only the final size once completed.
func (c *Chunk) Format(ev progress.Event) string {
	p := int64(ev.Task.Progress())
	if p == 0 && c.totalSize == nil {
		if n, ok := ev.Task.Total(); ok {
			c.totalStr = FormatSize(float64(int64(n) * c.chunkSize))
		}
	}
	done := FormatSize(float64(p * c.chunkSize))
	if ev.Task.IsCompleted() {
		if c.totalSize == nil {
			return done
		}
		return c.totalStr
	}
	return done + "/" + c.totalStr
}

var (
	_ Formatter = (*ProgressBar)(nil)
	_ Formatter = (*Chunk)(nil)
)
