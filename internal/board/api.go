package board

import (
	"context"
	"fmt"
	"net/url"

	"stationboard.org/internal/mbta"
	"stationboard.org/internal/models"
)

// Fetcher retrieves a JSON:API document. *mbta.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, path string, params url.Values) (*mbta.Document, error)
}

// PredictionSource supplies live trip status for a stop.
type PredictionSource interface {
	Predictions(ctx context.Context, stop models.StopID, mode models.RouteType) (models.Predictions, error)
}

// Direction ids used by schedule queries.
const (
	DirectionOutbound = 0
	DirectionInbound  = 1
)

// ScheduledStop is one schedule entry reduced to the fields the joins need.
type ScheduledStop struct {
	Route models.RouteID
	Trip  models.TripID
	Time  string
}

// API performs the individual remote lookups.
type API struct {
	fetcher Fetcher
}

func NewAPI(f Fetcher) *API {
	return &API{fetcher: f}
}

type routeAttributes struct {
	DirectionDestinations []string `json:"direction_destinations"`
	DirectionNames        []string `json:"direction_names"`
	LongName              string   `json:"long_name"`
	Color                 *string  `json:"color"`
}

type predictionAttributes struct {
	Status *string `json:"status"`
}

type scheduleAttributes struct {
	ArrivalTime   *string `json:"arrival_time"`
	DepartureTime *string `json:"departure_time"`
}

// DiscoverRoutes lists the routes of the given mode serving stop, in server order.
func (a *API) DiscoverRoutes(ctx context.Context, stop models.StopID, mode models.RouteType) ([]models.RouteID, error) {
	params := url.Values{}
	params.Set("filter[stop]", string(stop))
	params.Set("filter[type]", mode.Param())

	doc, err := a.fetcher.Fetch(ctx, "/routes", params)
	if err != nil {
		return nil, err
	}
	resources, err := doc.Collection()
	if err != nil {
		return nil, fmt.Errorf("%w: routes for stop %s: %w", ErrMalformedResponse, stop, err)
	}

	ids := make([]models.RouteID, 0, len(resources))
	for _, r := range resources {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: route without id for stop %s", ErrMalformedResponse, stop)
		}
		ids = append(ids, models.RouteID(r.ID))
	}
	return ids, nil
}

// EnrichRoute resolves the display metadata of one route.
func (a *API) EnrichRoute(ctx context.Context, route models.RouteID) (models.RouteMetadata, error) {
	doc, err := a.fetcher.Fetch(ctx, "/routes/"+url.PathEscape(string(route)), nil)
	if err != nil {
		return models.RouteMetadata{}, err
	}
	r, err := doc.Single()
	if err != nil {
		return models.RouteMetadata{}, fmt.Errorf("%w: route %s: %w", ErrMalformedResponse, route, err)
	}

	var attrs routeAttributes
	if err := r.DecodeAttributes(&attrs); err != nil {
		return models.RouteMetadata{}, fmt.Errorf("%w: route %s: %w", ErrMalformedResponse, route, err)
	}
	switch {
	case len(attrs.DirectionDestinations) == 0 || attrs.DirectionDestinations[0] == "":
		return models.RouteMetadata{}, fmt.Errorf("%w: route %s has no direction destinations", ErrMalformedResponse, route)
	case len(attrs.DirectionNames) == 0 || attrs.DirectionNames[0] == "":
		return models.RouteMetadata{}, fmt.Errorf("%w: route %s has no direction names", ErrMalformedResponse, route)
	case attrs.LongName == "":
		return models.RouteMetadata{}, fmt.Errorf("%w: route %s has no long name", ErrMalformedResponse, route)
	case attrs.Color == nil:
		return models.RouteMetadata{}, fmt.Errorf("%w: route %s has no color", ErrMalformedResponse, route)
	}

	return models.RouteMetadata{
		Destination: attrs.DirectionDestinations[0],
		Direction:   attrs.DirectionNames[0],
		LongName:    attrs.LongName,
		Color:       *attrs.Color,
	}, nil
}

// Predictions maps trips at stop to their live status. Entries with a null
// status are skipped; a repeated trip keeps the last status seen.
func (a *API) Predictions(ctx context.Context, stop models.StopID, mode models.RouteType) (models.Predictions, error) {
	params := url.Values{}
	params.Set("filter[stop]", string(stop))
	params.Set("filter[route_type]", mode.Param())

	doc, err := a.fetcher.Fetch(ctx, "/predictions", params)
	if err != nil {
		return nil, err
	}
	resources, err := doc.Collection()
	if err != nil {
		return nil, fmt.Errorf("%w: predictions for stop %s: %w", ErrMalformedResponse, stop, err)
	}

	preds := make(models.Predictions, len(resources))
	for _, r := range resources {
		trip, ok := r.Related("trip")
		if !ok {
			return nil, fmt.Errorf("%w: prediction %q has no trip", ErrMalformedResponse, r.ID)
		}
		var attrs predictionAttributes
		if err := r.DecodeAttributes(&attrs); err != nil {
			return nil, fmt.Errorf("%w: prediction %q: %w", ErrMalformedResponse, r.ID, err)
		}
		if attrs.Status == nil {
			continue
		}
		preds[models.TripID(trip)] = *attrs.Status
	}
	return preds, nil
}

// NextDeparture returns the first outbound departure of route from stop at or
// after cutoff, or nil when there is none.
func (a *API) NextDeparture(ctx context.Context, route models.RouteID, stop models.StopID, cutoff models.TimeOfDay) (*ScheduledStop, error) {
	params := url.Values{}
	params.Set("filter[route]", string(route))
	params.Set("filter[stop]", string(stop))
	params.Set("filter[direction_id]", fmt.Sprint(DirectionOutbound))
	params.Set("filter[min_time]", cutoff.String())
	params.Set("sort", "departure_time")
	params.Set("page[limit]", "1")

	doc, err := a.fetcher.Fetch(ctx, "/schedules", params)
	if err != nil {
		return nil, err
	}
	resources, err := doc.Collection()
	if err != nil {
		return nil, fmt.Errorf("%w: departures for route %s: %w", ErrNoScheduleData, route, err)
	}
	if len(resources) == 0 {
		return nil, nil
	}

	r := resources[0]
	var attrs scheduleAttributes
	if err := r.DecodeAttributes(&attrs); err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %w", ErrNoScheduleData, r.ID, err)
	}
	if attrs.DepartureTime == nil || *attrs.DepartureTime == "" {
		return nil, fmt.Errorf("%w: schedule %q has no departure time", ErrNoScheduleData, r.ID)
	}
	trip, ok := r.Related("trip")
	if !ok {
		return nil, fmt.Errorf("%w: schedule %q has no trip", ErrNoScheduleData, r.ID)
	}
	return &ScheduledStop{Route: route, Trip: models.TripID(trip), Time: *attrs.DepartureTime}, nil
}

// Arrivals returns the inbound arrivals at stop at or after cutoff for routes
// accepted by keep, in server order. Entries for other routes are dropped
// before their fields are inspected.
func (a *API) Arrivals(ctx context.Context, stop models.StopID, cutoff models.TimeOfDay, keep func(models.RouteID) bool) ([]ScheduledStop, error) {
	params := url.Values{}
	params.Set("filter[stop]", string(stop))
	params.Set("filter[direction_id]", fmt.Sprint(DirectionInbound))
	params.Set("filter[min_time]", cutoff.String())

	doc, err := a.fetcher.Fetch(ctx, "/schedules", params)
	if err != nil {
		return nil, err
	}
	resources, err := doc.Collection()
	if err != nil {
		return nil, fmt.Errorf("%w: arrivals for stop %s: %w", ErrNoScheduleData, stop, err)
	}

	var out []ScheduledStop
	for _, r := range resources {
		route, ok := r.Related("route")
		if !ok {
			return nil, fmt.Errorf("%w: schedule %q has no route", ErrNoScheduleData, r.ID)
		}
		if !keep(models.RouteID(route)) {
			continue
		}
		var attrs scheduleAttributes
		if err := r.DecodeAttributes(&attrs); err != nil {
			return nil, fmt.Errorf("%w: schedule %q: %w", ErrNoScheduleData, r.ID, err)
		}
		if attrs.ArrivalTime == nil || *attrs.ArrivalTime == "" {
			return nil, fmt.Errorf("%w: schedule %q has no arrival time", ErrNoScheduleData, r.ID)
		}
		trip, ok := r.Related("trip")
		if !ok {
			return nil, fmt.Errorf("%w: schedule %q has no trip", ErrNoScheduleData, r.ID)
		}
		out = append(out, ScheduledStop{Route: models.RouteID(route), Trip: models.TripID(trip), Time: *attrs.ArrivalTime})
	}
	return out, nil
}
