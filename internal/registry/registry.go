// Package registry is the configuration front end: it holds named monitor
// definitions, resolves their dotted-name inheritance and builds ready to use
// monitors from them.
//
// A Registry is owned by the caller; there is no process-wide instance.
// Definitions are plain option maps, usually loaded by package config:
//
//	monitors:
//	  etl:
//	    rule_factory: $by_span
//	    span: 100
//	  etl.load:
//	    format_str: "{$task} {$progressbar}"
//
// "etl.load" inherits span and rule_factory from "etl". Tokens starting with
// "$" name built-in or registered components; the bare name is accepted too.
package registry

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/progress-monitor/internal/clock"
	"github.com/JakeFAU/progress-monitor/internal/compose"
	"github.com/JakeFAU/progress-monitor/internal/config"
	"github.com/JakeFAU/progress-monitor/internal/fallback"
	"github.com/JakeFAU/progress-monitor/internal/format"
	"github.com/JakeFAU/progress-monitor/internal/hook"
	"github.com/JakeFAU/progress-monitor/internal/logging"
	"github.com/JakeFAU/progress-monitor/internal/monitor"
	"github.com/JakeFAU/progress-monitor/internal/progress"
	"github.com/JakeFAU/progress-monitor/internal/progress/sinks"
	"github.com/JakeFAU/progress-monitor/internal/rule"
)

// Hook kinds understood by the "hook" option.
const (
	HookFormatted = "formatted"
	HookReport    = "report"
)

// SinkHub is the sink kind that routes notifications through the hub given
// to WithHub.
const SinkHub = "hub"

// DefaultConsumer is the destination of store_till_end sinks when none is set.
const DefaultConsumer = "stdout"

// HookBuilder builds a custom hook kind for one run.
type HookBuilder func(sink progress.Sink, opts MonitorOptions, length int) (hook.Hook, error)

var ruleAliases = map[string]string{
	"always_true": string(rule.KindAlways),
	"by_span":     string(rule.KindSpan),
	"by_rate":     string(rule.KindRate),
}

// Registry maps monitor names to definitions and builds monitors from them.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	monitors map[string]map[string]any

	rules     *fallback.Registry[rule.Params, rule.Rule]
	formats   *fallback.Registry[format.Params, format.Formatter]
	sinks     *fallback.Registry[sinks.Params, progress.Sink]
	hooks     map[string]HookBuilder
	consumers map[string]func([]string)

	logger  *zap.Logger
	clock   clock.Clock
	stdout  io.Writer
	stderr  io.Writer
	board   *sinks.Board
	metrics *hook.Metrics
	hub     *progress.Hub
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for diagnostics and the "log" sink.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithClock sets the clock of tasks and time based rules.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithStdout sets the writer of the "stdout", "overwrite" and "color" sinks.
func WithStdout(w io.Writer) Option {
	return func(r *Registry) { r.stdout = w }
}

// WithStderr sets the writer of the "stderr" sink.
func WithStderr(w io.Writer) Option {
	return func(r *Registry) { r.stderr = w }
}

// WithBoard enables the "board" sink.
func WithBoard(b *sinks.Board) Option {
	return func(r *Registry) { r.board = b }
}

// WithMetrics enables the "metrics" option of monitors.
func WithMetrics(m *hook.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithHub enables the "hub" sink, which shares h between every monitor that
// selects it.
func WithHub(h *progress.Hub) Option {
	return func(r *Registry) { r.hub = h }
}

// New returns an empty Registry holding the built-in components.
func New(opts ...Option) *Registry {
	r := &Registry{
		monitors:  map[string]map[string]any{},
		rules:     rule.NewRegistry(),
		formats:   format.NewRegistry(),
		sinks:     sinks.NewRegistry(),
		hooks:     map[string]HookBuilder{},
		consumers: map[string]func([]string){},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	r.clock = clock.OrSystem(r.clock)
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.stderr == nil {
		r.stderr = os.Stderr
	}
	r.consumers["stdout"] = writeLines(r.stdout)
	r.consumers["stderr"] = writeLines(r.stderr)
	r.consumers["log"] = func(lines []string) {
		for _, line := range lines {
			r.logger.Info(line)
		}
	}
	if r.hub != nil {
		hub := r.hub
		r.sinks.Register(SinkHub, func(sinks.Params) (progress.Sink, error) { return hub, nil }, "")
	}
	return r
}

func writeLines(w io.Writer) func([]string) {
	var mu sync.Mutex
	return func(lines []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, line := range lines {
			_, _ = io.WriteString(w, line+"\n")
		}
	}
}

// RegisterRule adds a rule kind. fallback names the kind tried when the
// factory reports a missing parameter.
func (r *Registry) RegisterRule(kind string, f fallback.Factory[rule.Params, rule.Rule], fallbackKind string) {
	r.rules.Register(token(kind), f, token(fallbackKind))
}

// RegisterFormatter adds a formatter kind usable as a template placeholder.
func (r *Registry) RegisterFormatter(kind string, f fallback.Factory[format.Params, format.Formatter], fallbackKind string) {
	r.formats.Register(token(kind), f, token(fallbackKind))
}

// RegisterSink adds a sink kind usable as callback_factory.
func (r *Registry) RegisterSink(kind string, f fallback.Factory[sinks.Params, progress.Sink], fallbackKind string) {
	r.sinks.Register(token(kind), f, token(fallbackKind))
}

// RegisterHook adds a hook kind usable as the "hook" option.
func (r *Registry) RegisterHook(kind string, b HookBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[token(kind)] = b
}

// RegisterConsumer adds a destination for store_till_end sinks.
func (r *Registry) RegisterConsumer(name string, consume func([]string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers[token(name)] = consume
}

// Configure validates cfg and adds its monitors, replacing definitions with
// the same name. Every monitor is trial-built; on any failure nothing is
// applied.
func (r *Registry) Configure(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return &ConfigurationError{Reason: "invalid configuration", Err: err}
	}
	r.mu.RLock()
	next := make(map[string]map[string]any, len(r.monitors)+len(cfg.Monitors))
	maps.Copy(next, r.monitors)
	r.mu.RUnlock()

	for name, def := range cfg.Monitors {
		opts := make(map[string]any, len(def))
		for k, v := range def {
			opts[strings.ToLower(k)] = v
		}
		next[strings.ToLower(name)] = opts
	}
	for _, name := range cfg.MonitorNames() {
		name = strings.ToLower(name)
		raw, _ := merge(next, name)
		if _, _, err := r.factories(name, raw); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.monitors = next
	r.mu.Unlock()
	r.logger.Debug("progress monitors configured", zap.Int("monitors", len(cfg.Monitors)))
	return nil
}

// Names returns the configured monitor names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.monitors))
	for name := range r.monitors {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Resolve returns the inherited options of name after overrides.
func (r *Registry) Resolve(name string, overrides ...Override) (MonitorOptions, error) {
	name = strings.ToLower(name)
	raw, err := r.raw(name, overrides)
	if err != nil {
		return MonitorOptions{}, err
	}
	opts, err := decodeOptions(raw)
	if err != nil {
		return MonitorOptions{}, &ConfigurationError{Monitor: name, Reason: "invalid options", Err: err}
	}
	return opts, nil
}

// Lookup builds the monitor configured for name or one of its dotted
// ancestors. It fails with *UnknownMonitorError when none is configured and
// with a *ConfigurationError when the definition cannot be built.
func (r *Registry) Lookup(name string, overrides ...Override) (*monitor.Monitor, error) {
	name = strings.ToLower(name)
	raw, err := r.raw(name, overrides)
	if err != nil {
		return nil, err
	}
	rules, hooks, err := r.factories(name, raw)
	if err != nil {
		return nil, err
	}
	opts, _ := decodeOptions(raw)
	return monitor.New(name,
		monitor.WithTaskName(opts.TaskName),
		monitor.WithRuleFactory(rules),
		monitor.WithHookFactory(hooks),
		monitor.WithLogger(r.logger.Named("monitor").With(zap.String("monitor", name))),
		monitor.WithClock(r.clock),
	), nil
}

// Monitor is Lookup for call sites that must never fail: unknown or broken
// definitions are logged and yield a pass-through monitor.
func (r *Registry) Monitor(name string, overrides ...Override) *monitor.Monitor {
	m, err := r.Lookup(name, overrides...)
	if err == nil {
		return m
	}
	var unknown *UnknownMonitorError
	if errors.As(err, &unknown) {
		r.logger.Warn("unknown progress monitor; using pass-through", zap.String("monitor", name))
	} else {
		r.logger.Error("progress monitor unusable; using pass-through",
			zap.String("monitor", name),
			zap.Strings("override_keys", overrideKeys(overrides)),
			zap.Error(err))
	}
	return monitor.Nop()
}

// overrideKeys lists the option keys set by overrides.
func overrideKeys(overrides []Override) []string {
	set := map[string]any{}
	for _, o := range overrides {
		o(set)
	}
	return slices.Sorted(maps.Keys(set))
}

func (r *Registry) raw(name string, overrides []Override) (map[string]any, error) {
	r.mu.RLock()
	raw, found := merge(r.monitors, name)
	r.mu.RUnlock()
	if !found {
		return nil, &UnknownMonitorError{Name: name}
	}
	for _, o := range overrides {
		o(raw)
	}
	return raw, nil
}

// factories decodes raw and returns the per-run builders of monitor name.
// Both are trial-built with an unknown and a known length, since factories
// that need a length fall back without one and would otherwise hide bad
// values until a sized run starts.
func (r *Registry) factories(name string, raw map[string]any) (monitor.RuleFactory, monitor.HookFactory, error) {
	opts, err := decodeOptions(raw)
	if err != nil {
		return nil, nil, &ConfigurationError{Monitor: name, Reason: "invalid options", Err: err}
	}
	level := zapcore.InfoLevel
	if opts.LogLevel != "" {
		if level, err = logging.ParseLevel(opts.LogLevel); err != nil {
			return nil, nil, &ConfigurationError{Monitor: name, Reason: "invalid log_level", Err: err}
		}
	}
	b := &builder{reg: r, name: name, opts: opts, level: level}

	rules := func(length int) (rule.Rule, error) { return b.rule(length) }
	hooks := func(length int) (hook.Hook, error) { return b.hook(length) }
	for _, length := range trialLengths {
		if _, err := rules(length); err != nil {
			return nil, nil, &ConfigurationError{Monitor: name, Reason: "invalid rule", Err: err}
		}
		if _, err := hooks(length); err != nil {
			return nil, nil, &ConfigurationError{Monitor: name, Reason: "invalid hook", Err: err}
		}
	}
	return rules, hooks, nil
}

// trialLengths are the lengths definitions are trial-built with.
var trialLengths = []int{progress.Unbounded, 100}

// token strips the "$" marker and folds case.
func token(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "$"))
}

type builder struct {
	reg   *Registry
	name  string
	opts  MonitorOptions
	level zapcore.Level
}

func lengthParam(length int) *int {
	if length < 0 {
		return nil
	}
	return &length
}

func (b *builder) rule(length int) (rule.Rule, error) {
	kind := string(rule.KindRate)
	if b.opts.RuleFactory != "" {
		kind = token(b.opts.RuleFactory)
		if alias, ok := ruleAliases[kind]; ok {
			kind = alias
		}
	}
	return b.reg.rules.Build(kind, rule.Params{
		Period: b.opts.Period,
		Span:   b.opts.Span,
		Rate:   b.opts.Rate,
		Length: lengthParam(length),
		Clock:  b.reg.clock,
	})
}

func (b *builder) hook(length int) (hook.Hook, error) {
	sink, err := b.sink()
	if err != nil {
		return nil, err
	}
	var h hook.Hook
	switch kind := token(b.opts.Hook); kind {
	case "", HookFormatted:
		f, err := b.formatter(length)
		if err != nil {
			return nil, err
		}
		h = hook.Formatted(f, sink, b.reg.logger)
	case HookReport:
		h, err = hook.Report(sink, hook.ReportOptions{Precision: b.opts.Precision, Logger: b.reg.logger})
		if err != nil {
			return nil, err
		}
	default:
		b.reg.mu.RLock()
		custom, ok := b.reg.hooks[kind]
		b.reg.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: hook %q", fallback.ErrUnknownKind, kind)
		}
		if h, err = custom(sink, b.opts, length); err != nil {
			return nil, err
		}
	}
	if b.opts.Metrics && b.reg.metrics != nil {
		return hook.NewListener(h, b.reg.metrics.Hook(b.name)), nil
	}
	return h, nil
}

func (b *builder) formatter(length int) (format.Formatter, error) {
	tmpl := b.opts.FormatStr
	if tmpl == "" {
		tmpl = DefaultFormat
	}
	names, err := compose.Placeholders(tmpl)
	if err != nil {
		return nil, err
	}
	params := format.Params{
		Refresh:   b.opts.Refresh,
		Precision: b.opts.Precision,
		Fill:      b.opts.Fill,
		Blank:     b.opts.Blank,
		Template:  b.opts.BarFormat,
		Length:    lengthParam(length),
		DecayRate: b.opts.DecayRate,
		Elapsed:   b.opts.ElapsedTime,
		Total:     b.opts.TotalTime,
		ChunkSize: b.opts.ChunkSize,
		TotalSize: b.opts.TotalSize,
	}
	if b.opts.Rate != nil && *b.opts.Rate > 0 && length >= 0 {
		n := rule.NotificationCount(*b.opts.Rate)
		params.Notifications = &n
	}
	formatters := make(map[string]format.Formatter, len(names))
	for _, name := range names {
		f, err := b.reg.formats.Build(token(name), params)
		if err != nil {
			if errors.Is(err, fallback.ErrUnknownKind) {
				return nil, fmt.Errorf("%w: {%s}", compose.ErrUnknownPlaceholder, name)
			}
			return nil, fmt.Errorf("placeholder {%s}: %w", name, err)
		}
		formatters[name] = f
	}
	return compose.New(tmpl, formatters)
}

func (b *builder) sink() (progress.Sink, error) {
	kind := token(b.opts.CallbackFactory)
	if kind == "" {
		kind = string(sinks.KindStdout)
		if len(b.opts.CallbackFactories) > 0 {
			kind = string(sinks.KindMulti)
		}
	}
	params, err := b.sinkParams()
	if err != nil {
		return nil, err
	}
	if kind == string(sinks.KindMulti) {
		for _, child := range b.opts.CallbackFactories {
			s, err := b.reg.sinks.Build(token(child), params)
			if err != nil {
				return nil, fmt.Errorf("callback factory %q: %w", child, err)
			}
			params.Children = append(params.Children, s)
		}
	}
	return b.reg.sinks.Build(kind, params)
}

func (b *builder) sinkParams() (sinks.Params, error) {
	dest := token(b.opts.Destination)
	if dest == "" {
		dest = DefaultConsumer
	}
	b.reg.mu.RLock()
	consume, ok := b.reg.consumers[dest]
	b.reg.mu.RUnlock()
	if !ok {
		return sinks.Params{}, fmt.Errorf("%w: destination %q", fallback.ErrUnknownKind, dest)
	}
	return sinks.Params{
		Monitor:     b.name,
		Stdout:      b.reg.stdout,
		Stderr:      b.reg.stderr,
		Logger:      b.reg.logger,
		LoggerName:  b.opts.LoggerName,
		Level:       b.level,
		Destination: consume,
		Board:       b.reg.board,
	}, nil
}
