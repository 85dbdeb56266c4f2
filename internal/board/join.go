package board

import (
	"time"

	"stationboard.org/internal/models"
)

// applyDeparture attaches the next departure to rec. A nil schedule means the
// route has nothing after the cutoff.
func applyDeparture(rec *models.DepartureRecord, next *ScheduledStop, preds models.Predictions) error {
	if next == nil {
		rec.Departure = models.NoDeparture
		rec.TripStatus = models.StatusUnavailable
		return nil
	}
	readable, err := ToReadable(next.Time)
	if err != nil {
		return err
	}
	if readable == "" {
		readable = models.NoDeparture
	}
	rec.Departure = readable
	rec.TripStatus = preds.Status(next.Trip)
	return nil
}

// joinArrivals builds the arrivals mapping. When a route has several arrivals
// the earliest one is kept, ties going to the first seen. Output follows order.
func joinArrivals(entries []ScheduledStop, order []models.RouteID, lineNames map[models.RouteID]string, preds models.Predictions) (*models.Arrivals, error) {
	type candidate struct {
		at    time.Time
		entry ScheduledStop
	}
	best := make(map[models.RouteID]candidate, len(order))
	for _, e := range entries {
		at, err := ParseScheduleTime(e.Time)
		if err != nil {
			return nil, err
		}
		if cur, ok := best[e.Route]; ok && !at.Before(cur.at) {
			continue
		}
		best[e.Route] = candidate{at: at, entry: e}
	}

	arrivals := &models.Arrivals{}
	for _, route := range order {
		c, ok := best[route]
		if !ok {
			continue
		}
		arrivals.Set(route, models.ArrivalRecord{
			Arrival:    c.at.Format(readableLayout),
			TripStatus: preds.Status(c.entry.Trip),
			LineName:   lineNames[route],
		})
	}
	return arrivals, nil
}
