// Package format renders upstream integers and durations for display.
package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// groupingFormat groups thousands with "." and renders no fractional part.
const groupingFormat = "#.###,"

// Number groups the digits of n in threes from the least-significant digit,
// separated by ".". Upstream amounts are non-negative integers.
// humanize formats through float64, so values are exact only up to 2^53;
// larger values lose their low digits.
//
//	Number(1234567) == "1.234.567"
func Number(n int64) string {
	return humanize.FormatInteger(groupingFormat, int(n))
}

// Duration renders ms milliseconds as whole hours and whole minutes,
// truncating any remainder.
//
//	Duration(5400000) == "1h 30m"
func Duration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	d := time.Duration(ms) * time.Millisecond
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
