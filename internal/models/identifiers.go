package models

import "strconv"

// StopID identifies a stop or parent station, e.g. "place-north".
type StopID string

// RouteID identifies a route, e.g. "CR-Lowell".
type RouteID string

// TripID identifies a single scheduled trip.
type TripID string

// RouteType is the GTFS route_type of a route.
type RouteType int

// CommuterRail is GTFS route_type 2.
const CommuterRail RouteType = 2

// Param formats the route type as a query parameter value.
func (r RouteType) Param() string {
	return strconv.Itoa(int(r))
}

// Stop is the station a board is built for.
type Stop struct {
	Name string `json:"name"`
	ID   StopID `json:"id"`
}
