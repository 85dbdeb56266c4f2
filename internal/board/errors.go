package board

import (
	"context"
	"errors"

	"stationboard.org/internal/mbta"
)

var (
	// ErrTransportFetch matches any remote call that could not be completed.
	ErrTransportFetch = mbta.ErrFetch

	// ErrMalformedResponse means a call completed but lacked the expected shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrMalformedTimestamp means a schedule timestamp could not be normalized.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrNoScheduleData means a schedule result was present but missing fields.
	// An empty result set is not an error.
	ErrNoScheduleData = errors.New("no schedule data")
)

// ErrorKind returns a stable label for err, used in logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrTransportFetch):
		return "transport_fetch"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, ErrNoScheduleData):
		return "no_schedule_data"
	default:
		return "unknown"
	}
}
