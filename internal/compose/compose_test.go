package compose

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/progress-monitor/internal/format"
	"github.com/JakeFAU/progress-monitor/internal/progress"
)

func counter(prefix string) (format.Formatter, *int) {
	calls := 0
	return format.Func(func(progress.Event) string {
		calls++
		return fmt.Sprintf("%s%d", prefix, calls)
	}), &calls
}

func TestComposerFormat(t *testing.T) {
	t.Parallel()

	a, aCalls := counter("a")
	b, _ := counter("b")
	c, err := New("<{$a}|{b.x}|{$a}> {{literal}}", map[string]format.Formatter{"$a": a, "b.x": b})
	require.NoError(t, err)
	require.Equal(t, []string{"$a", "b.x"}, c.Placeholders())

	ev := progress.Event{Task: progress.NewTask("t", 1)}
	require.Equal(t, "<a1|b1|a1> {literal}", c.Format(ev))
	require.Equal(t, "<a2|b2|a2> {literal}", c.Format(ev))
	require.Equal(t, 2, *aCalls, "each formatter runs once per line")
}

func TestComposerUnknownPlaceholder(t *testing.T) {
	t.Parallel()

	a, _ := counter("a")
	_, err := New("{$a} {$missing}", map[string]format.Formatter{"$a": a})
	require.ErrorIs(t, err, ErrUnknownPlaceholder)
	require.ErrorContains(t, err, "{$missing}")
}

func TestComposerMalformed(t *testing.T) {
	t.Parallel()

	for _, tmpl := range []string{"{open", "close}", "{}", "{bad name}"} {
		t.Run(tmpl, func(t *testing.T) {
			t.Parallel()
			_, err := New(tmpl, nil)
			require.ErrorIs(t, err, ErrMalformedTemplate)
		})
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	names, err := Placeholders("{$task} {$iteration} {$task}")
	require.NoError(t, err)
	require.Equal(t, []string{"$task", "$iteration"}, names)

	names, err = Placeholders("no placeholders")
	require.NoError(t, err)
	require.Empty(t, names)
}

func ExampleNew() {
	task := progress.NewTask("resize", 4)
	task.Start()
	task.Update(2)

	iteration, _ := format.NewIteration(format.Params{})
	c, err := New("resize: {$iteration}", map[string]format.Formatter{"$iteration": iteration})
	if err != nil {
		panic(err)
	}
	fmt.Println(c.Format(progress.Event{Task: task}))
	// Output:
	// resize: 2/3
}
