package models

// Fallback labels shown on the board when data is unavailable
const (
	// StatusUnavailable is used for trips that have no live prediction
	StatusUnavailable = "Status Unavailable"

	// NoDeparture replaces the departure time when a route has nothing scheduled after the cutoff
	NoDeparture = "No departure for this route at this time"
)
