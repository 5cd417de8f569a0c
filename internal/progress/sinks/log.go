package sinks

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/progress-monitor/internal/progress"
)

// LogSink forwards progress lines to a named zap logger at a fixed level.
type LogSink struct {
	logger *zap.Logger
	level  zapcore.Level
}

// NewLogSink wires a Zap logger to the sink interface. An empty channel keeps
// the logger name unchanged.
func NewLogSink(logger *zap.Logger, channel string, level zapcore.Level) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel != "" {
		logger = logger.Named(channel)
	}
	return &LogSink{logger: logger, level: level}
}

// Notify logs text as the message.
func (s *LogSink) Notify(text string, final bool) error {
	if ce := s.logger.Check(s.level, text); ce != nil {
		ce.Write(zap.Bool("final", final))
	}
	return nil
}

// NotifyEvent logs text with the task fields of ev.
func (s *LogSink) NotifyEvent(text string, ev progress.Event) error {
	ce := s.logger.Check(s.level, text)
	if ce == nil {
		return nil
	}
	fields := []zap.Field{zap.Bool("final", ev.Final())}
	if t := ev.Task; t != nil {
		fields = append(fields,
			zap.Int64("task_id", t.ID()),
			zap.String("run_id", t.RunID().String()),
			zap.String("task", t.Name()),
			zap.String("state", t.State().String()),
			zap.Int("progress", t.Progress()),
			zap.Duration("dur", t.Duration()),
		)
	}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}
	ce.Write(fields...)
	return nil
}

var _ progress.EventSink = (*LogSink)(nil)
