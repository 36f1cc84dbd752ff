package util

import (
	"strconv"
	"strings"
	"time"
)

// FormatNumber groups digits by thousands: 1234567 -> "1,234,567".
func FormatNumber(n uint64) string {
	return group(strconv.FormatUint(n, 10))
}

func FormatInt(n int64) string {
	if n < 0 {
		return "-" + group(strconv.FormatUint(uint64(-(n+1))+1, 10))
	}
	return group(strconv.FormatInt(n, 10))
}

// FormatMillis renders d as milliseconds with microsecond precision.
func FormatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64) + " ms"
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
