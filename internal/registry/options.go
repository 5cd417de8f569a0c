package registry

import (
	"fmt"
	"maps"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultFormat is the template used when a monitor sets no format_str.
const DefaultFormat = "{$task} {$iteration} {$elapsed} {$exception}"

// MonitorOptions is the decoded, inherited definition of one monitor.
type MonitorOptions struct {
	FormatStr         string         `mapstructure:"format_str" yaml:"format_str,omitempty" json:"format_str,omitempty"`
	RuleFactory       string         `mapstructure:"rule_factory" yaml:"rule_factory,omitempty" json:"rule_factory,omitempty"`
	CallbackFactory   string         `mapstructure:"callback_factory" yaml:"callback_factory,omitempty" json:"callback_factory,omitempty"`
	CallbackFactories []string       `mapstructure:"callback_factories" yaml:"callback_factories,omitempty" json:"callback_factories,omitempty"`
	Destination       string         `mapstructure:"destination" yaml:"destination,omitempty" json:"destination,omitempty"`
	Hook              string         `mapstructure:"hook" yaml:"hook,omitempty" json:"hook,omitempty"`
	Rate              *float64       `mapstructure:"rate" yaml:"rate,omitempty" json:"rate,omitempty"`
	Span              *int           `mapstructure:"span" yaml:"span,omitempty" json:"span,omitempty"`
	Period            *time.Duration `mapstructure:"period" yaml:"period,omitempty" json:"period,omitempty"`
	DecayRate         *float64       `mapstructure:"decay_rate" yaml:"decay_rate,omitempty" json:"decay_rate,omitempty"`
	ElapsedTime       *bool          `mapstructure:"elapsed_time" yaml:"elapsed_time,omitempty" json:"elapsed_time,omitempty"`
	TotalTime         *bool          `mapstructure:"total_time" yaml:"total_time,omitempty" json:"total_time,omitempty"`
	TaskName          string         `mapstructure:"task_name" yaml:"task_name,omitempty" json:"task_name,omitempty"`
	ChunkSize         *int           `mapstructure:"chunk_size" yaml:"chunk_size,omitempty" json:"chunk_size,omitempty"`
	TotalSize         *int64         `mapstructure:"total_size" yaml:"total_size,omitempty" json:"total_size,omitempty"`
	Fill              string         `mapstructure:"fill" yaml:"fill,omitempty" json:"fill,omitempty"`
	Blank             string         `mapstructure:"blank" yaml:"blank,omitempty" json:"blank,omitempty"`
	BarFormat         string         `mapstructure:"bar_format" yaml:"bar_format,omitempty" json:"bar_format,omitempty"`
	Precision         *int           `mapstructure:"precision" yaml:"precision,omitempty" json:"precision,omitempty"`
	Refresh           bool           `mapstructure:"refresh" yaml:"refresh,omitempty" json:"refresh,omitempty"`
	LoggerName        string         `mapstructure:"logger_name" yaml:"logger_name,omitempty" json:"logger_name,omitempty"`
	LogLevel          string         `mapstructure:"log_level" yaml:"log_level,omitempty" json:"log_level,omitempty"`
	Metrics           bool           `mapstructure:"metrics" yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// Override adjusts the raw options of a single lookup.
type Override func(raw map[string]any)

// Set overrides one raw option.
func Set(key string, value any) Override {
	return func(raw map[string]any) { raw[strings.ToLower(key)] = value }
}

// chain returns the dotted ancestors of name followed by name itself:
// "a.b.c" -> ["a", "a.b", "a.b.c"].
func chain(name string) []string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], "."))
	}
	return out
}

// merge overlays the definitions found along the dotted chain of name,
// children overriding parents. found is false when none exists.
func merge(monitors map[string]map[string]any, name string) (map[string]any, bool) {
	out := map[string]any{}
	found := false
	for _, key := range chain(name) {
		if def, ok := monitors[key]; ok {
			found = true
			maps.Copy(out, def)
		}
	}
	return out, found
}

func decodeOptions(raw map[string]any) (MonitorOptions, error) {
	var opts MonitorOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return MonitorOptions{}, fmt.Errorf("build options decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return MonitorOptions{}, fmt.Errorf("decode options: %w", err)
	}
	return opts, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsToDurationHook reads bare numbers as seconds.
func secondsToDurationHook(_, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case float32:
		return time.Duration(float64(v) * float64(time.Second)), nil
	}
	return data, nil
}
