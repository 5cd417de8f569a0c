package format

import (
	"fmt"
	"math"
	"strconv"
)

// FormatDuration renders seconds as "[<d>d ][<h>h ][<m>m ]<s>s" with the
// seconds carrying precision decimals. Higher units appear once the carried
// count reaches them, e.g. 95123 -> "1d 2h 25m 23.00s".
func FormatDuration(seconds float64, precision int) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	if precision < 0 {
		precision = 0
	}
	res := strconv.FormatFloat(math.Mod(seconds, 60), 'f', precision, 64) + "s"
	excess := int64(seconds) / 60
	if excess == 0 {
		return res
	}
	res = strconv.FormatInt(excess%60, 10) + "m " + res
	excess /= 60
	if excess == 0 {
		return res
	}
	res = strconv.FormatInt(excess%24, 10) + "h " + res
	excess /= 24
	if excess == 0 {
		return res
	}
	return strconv.FormatInt(excess, 10) + "d " + res
}

var sizeUnits = []string{"bytes", "kB", "MB", "GB"}

// FormatSize renders a byte count with one decimal in decimal units, e.g.
// 1000000 -> "1.0 MB".
func FormatSize(bytes float64) string {
	for _, unit := range sizeUnits {
		if bytes < 1000 {
			return fmt.Sprintf("%3.1f %s", bytes, unit)
		}
		bytes /= 1000
	}
	return fmt.Sprintf("%3.1f %s", bytes, "TB")
}
