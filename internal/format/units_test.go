package format

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds   float64
		precision int
		want      string
	}{
		{seconds: 23 + 60*(52+60*(4+24*1)), precision: 2, want: "1d 4h 52m 23.00s"},
		{seconds: 95123, precision: 2, want: "1d 2h 25m 23.00s"},
		{seconds: 3600, precision: 2, want: "1h 0m 0.00s"},
		{seconds: 59.5, precision: 2, want: "59.50s"},
		{seconds: 61, precision: 0, want: "1m 1s"},
		{seconds: 0.123456, precision: 4, want: "0.1235s"},
		{seconds: -3, precision: 2, want: "0.00s"},
		{seconds: 86400 * 3, precision: 1, want: "3d 0h 0m 0.0s"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, FormatDuration(tc.seconds, tc.precision))
		})
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes float64
		want  string
	}{
		{bytes: 0, want: "0.0 bytes"},
		{bytes: 100, want: "100.0 bytes"},
		{bytes: 1000, want: "1.0 kB"},
		{bytes: 1_000_000, want: "1.0 MB"},
		{bytes: 1_500_000_000, want: "1.5 GB"},
		{bytes: 1e12, want: "1.0 TB"},
		{bytes: 1e18, want: "1000000.0 TB"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, FormatSize(tc.bytes))
		})
	}
}

func ExampleFormatDuration() {
	fmt.Println(FormatDuration(95123, 2))
	fmt.Println(FormatSize(1_000_000))
	// Output:
	// 1d 2h 25m 23.00s
	// 1.0 MB
}
