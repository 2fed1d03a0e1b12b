package util

import (
	"strconv"
	"time"
)

// TimestampLayout is the gateway timestamp format, YYYY:MM:DD-HH:MM:SS.
const TimestampLayout = "2006:01:02-15:04:05"

// FormattedTimestamp formats t in UTC using TimestampLayout.
func FormattedTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// PadNumber adds a leading zero to numbers below 10.
func PadNumber(n int) string {
	if n >= 0 && n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
