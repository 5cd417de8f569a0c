package sinks

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/progress-monitor/internal/fallback"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// Kind names a built-in sink.
type Kind string

// Built-in sink kinds.
const (
	KindStdout       Kind = "stdout"
	KindStderr       Kind = "stderr"
	KindOverwrite    Kind = "overwrite"
	KindLog          Kind = "log"
	KindStoreTillEnd Kind = "store_till_end"
	KindMulti        Kind = "multi"
	KindColor        Kind = "color"
	KindBoard        Kind = "board"
)

// Params carries what sink factories may need. Nil writers default to the
// process stdout and stderr.
type Params struct {
	Monitor     string
	Stdout      io.Writer
	Stderr      io.Writer
	Logger      *zap.Logger
	LoggerName  string
	Level       zapcore.Level
	Destination func([]string)
	Children    []progress.Sink
	Board       *Board
}

func (p Params) stdout() io.Writer {
	if p.Stdout == nil {
		return os.Stdout
	}
	return p.Stdout
}

func (p Params) stderr() io.Writer {
	if p.Stderr == nil {
		return os.Stderr
	}
	return p.Stderr
}

// NewRegistry returns a registry holding every built-in sink kind.
func NewRegistry() *fallback.Registry[Params, progress.Sink] {
	reg := fallback.NewRegistry[Params, progress.Sink]()
	reg.Register(string(KindStdout), func(p Params) (progress.Sink, error) {
		return Console(p.stdout()), nil
	}, "")
	reg.Register(string(KindStderr), func(p Params) (progress.Sink, error) {
		return Console(p.stderr()), nil
	}, "")
	reg.Register(string(KindOverwrite), func(p Params) (progress.Sink, error) {
		return Overwrite(p.stdout()), nil
	}, "")
	reg.Register(string(KindColor), func(p Params) (progress.Sink, error) {
		return Color(p.stdout()), nil
	}, "")
	reg.Register(string(KindLog), func(p Params) (progress.Sink, error) {
		channel := p.LoggerName
		if channel == "" {
			channel = p.Monitor
		}
		return NewLogSink(p.Logger, channel, p.Level), nil
	}, "")
	reg.Register(string(KindStoreTillEnd), func(p Params) (progress.Sink, error) {
		if p.Destination == nil {
			return nil, fallback.Missing(string(KindStoreTillEnd), "destination")
		}
		return StoreTillEnd(p.Destination), nil
	}, "")
	reg.Register(string(KindMulti), func(p Params) (progress.Sink, error) {
		if len(p.Children) == 0 {
			return nil, fallback.Missing(string(KindMulti), "callback_factories")
		}
		return Multi(p.Children...), nil
	}, "")
	reg.Register(string(KindBoard), func(p Params) (progress.Sink, error) {
		if p.Board == nil {
			return nil, fallback.Missing(string(KindBoard), "board")
		}
		return p.Board.Sink(p.Monitor), nil
	}, "")
	return reg
}
