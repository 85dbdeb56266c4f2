package board

import (
	"fmt"
	"time"
)

const (
	scheduleLayout = "2006-01-02T15:04:05"
	readableLayout = "03:04 PM"

	// Length of the trailing "±HH:MM" offset on schedule timestamps.
	offsetSuffixLen = 6
)

// ParseScheduleTime drops the trailing UTC offset and parses the remainder as
// agency wall-clock time. The offset is discarded, not applied.
func ParseScheduleTime(raw string) (time.Time, error) {
	if len(raw) < offsetSuffixLen {
		return time.Time{}, fmt.Errorf("%w: %q is too short", ErrMalformedTimestamp, raw)
	}
	t, err := time.Parse(scheduleLayout, raw[:len(raw)-offsetSuffixLen])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, raw, err)
	}
	return t, nil
}

// ToReadable converts "2020-05-03T23:30:00-04:00" into "11:30 PM".
func ToReadable(raw string) (string, error) {
	t, err := ParseScheduleTime(raw)
	if err != nil {
		return "", err
	}
	return t.Format(readableLayout), nil
}
