package models

import "time"

// Board is the result of one aggregation run.
type Board struct {
	RunID       string      `json:"runId"`
	Stop        Stop        `json:"stop"`
	Cutoff      TimeOfDay   `json:"cutoff"`
	Departures  *Departures `json:"departures"`
	Arrivals    *Arrivals   `json:"arrivals"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// DisplayTime formats a wall-clock moment the way the board header shows it.
func DisplayTime(t time.Time) string {
	return t.Format("03:04 PM")
}
