package models

import (
	"fmt"
	"time"
)

// RouteMetadata holds the display attributes of a route
type RouteMetadata struct {
	Destination string `json:"destination"`
	Direction   string `json:"direction"`
	LongName    string `json:"long_name"`
	Color       string `json:"color"`
}

// DepartureRecord is the next outbound departure for a route
type DepartureRecord struct {
	RouteMetadata
	Departure  string `json:"departure"`
	TripStatus string `json:"trip_status"`
}

// ArrivalRecord is an inbound arrival for a discovered route
type ArrivalRecord struct {
	Arrival    string `json:"arrival"`
	TripStatus string `json:"trip_status"`
	LineName   string `json:"line_name"`
}

// TimeOfDay is a local hour:minute value with no date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String formats the value as HH:MM, the form accepted by schedule min_time filters.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText lets a TimeOfDay appear as "HH:MM" in JSON output.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := time.Parse("15:04", string(text))
	if err != nil {
		return fmt.Errorf("time of day %q: %w", text, err)
	}
	*t = TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}
	return nil
}
