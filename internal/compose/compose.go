// Package compose renders a notification line from a template such as
// "{$task} {$iteration} {$elapsed}" and a set of named formatters.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JakeFAU/progress-monitor/internal/format"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

var (
	// ErrUnknownPlaceholder is returned when a template references a name with
	// no formatter.
	ErrUnknownPlaceholder = errors.New("compose: unknown placeholder")
	// ErrMalformedTemplate is returned for unbalanced braces or invalid names.
	ErrMalformedTemplate = errors.New("compose: malformed template")
)

type segment struct {
	literal string
	slot    int // index into Composer.formatters, -1 for literals
}

// Composer substitutes formatter output into a template. It carries the
// state of its formatters and must not be shared between runs.
type Composer struct {
	template   string
	segments   []segment
	names      []string
	formatters []format.Formatter
}

var _ format.Formatter = (*Composer)(nil)

// New parses template and binds every placeholder to its formatter. Any
// placeholder without an entry in formatters fails with ErrUnknownPlaceholder.
func New(template string, formatters map[string]format.Formatter) (*Composer, error) {
	segments, names, err := parse(template)
	if err != nil {
		return nil, err
	}
	c := &Composer{template: template, segments: segments, names: names}
	for _, name := range names {
		f, ok := formatters[name]
		if !ok || f == nil {
			return nil, fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, name)
		}
		c.formatters = append(c.formatters, f)
	}
	return c, nil
}

// Placeholders lists the distinct names referenced by template in order of
// first appearance.
func Placeholders(template string) ([]string, error) {
	_, names, err := parse(template)
	return names, err
}

// Placeholders lists the names bound by the composer.
func (c *Composer) Placeholders() []string {
	return append([]string(nil), c.names...)
}

// Template returns the source template.
func (c *Composer) Template() string { return c.template }

// Format runs every bound formatter exactly once, in order of first
// appearance, and assembles the line.
func (c *Composer) Format(ev progress.Event) string {
	values := make([]string, len(c.formatters))
	for i, f := range c.formatters {
		values[i] = f.Format(ev)
	}
	var b strings.Builder
	for _, seg := range c.segments {
		if seg.slot < 0 {
			b.WriteString(seg.literal)
			continue
		}
		b.WriteString(values[seg.slot])
	}
	return b.String()
}

func parse(template string) ([]segment, []string, error) {
	var (
		segments []segment
		names    []string
		index    = map[string]int{}
		lit      strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segments = append(segments, segment{literal: lit.String(), slot: -1})
			lit.Reset()
		}
	}
	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch {
		case ch == '{' && i+1 < len(template) && template[i+1] == '{':
			lit.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(template) && template[i+1] == '}':
			lit.WriteByte('}')
			i++
		case ch == '}':
			return nil, nil, fmt.Errorf("%w: unmatched '}' at offset %d", ErrMalformedTemplate, i)
		case ch == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, nil, fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformedTemplate, i)
			}
			name := template[i+1 : i+1+end]
			if !validName(name) {
				return nil, nil, fmt.Errorf("%w: invalid placeholder %q", ErrMalformedTemplate, name)
			}
			slot, seen := index[name]
			if !seen {
				slot = len(names)
				index[name] = slot
				names = append(names, name)
			}
			flush()
			segments = append(segments, segment{slot: slot})
			i += end + 1
		default:
			lit.WriteByte(ch)
		}
	}
	flush()
	return segments, names, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r == '$' || r == '_' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
