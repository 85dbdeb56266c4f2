package board

import (
	"time"

	"stationboard.org/internal/models"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// SelectCutoff truncates the current time in loc to hour and minute.
// Seconds are discarded, not rounded.
func SelectCutoff(clock Clock, loc *time.Location) models.TimeOfDay {
	now := clock.Now()
	if loc != nil {
		now = now.In(loc)
	}
	return models.TimeOfDay{Hour: now.Hour(), Minute: now.Minute()}
}
