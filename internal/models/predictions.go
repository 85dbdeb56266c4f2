package models

// Predictions maps a trip to its live status label.
type Predictions map[TripID]string

// Status returns the live label for trip, or StatusUnavailable when there is none.
func (p Predictions) Status(trip TripID) string {
	if s, ok := p[trip]; ok {
		return s
	}
	return StatusUnavailable
}
