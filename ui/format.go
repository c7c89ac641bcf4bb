package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SecToHMS renders seconds as [h:mm:ss]. Negative values mean no limit.
func SecToHMS(sec int) string {
	if sec <= -1 {
		return "[endless]"
	}
	return fmt.Sprintf("[%d:%02d:%02d]", sec/3600, sec%3600/60, sec%60)
}

// DurationHMS is SecToHMS for a time.Duration.
func DurationHMS(d time.Duration) string {
	return SecToHMS(int(d / time.Second))
}

// AddCommas groups the digits of n in threes: 1234567 -> "1,234,567".
func AddCommas(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var sb strings.Builder
	sb.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		sb.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if sb.Len() > len(sign) {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}
