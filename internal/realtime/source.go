// Package realtime derives trip statuses from a GTFS-Realtime TripUpdates feed.
package realtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jamespfennell/gtfs"

	"stationboard.org/internal/board"
	"stationboard.org/internal/logging"
	"stationboard.org/internal/mbta"
	"stationboard.org/internal/models"
)

// OnTimeWindow is the deviation at which a trip stops being reported as on time.
const OnTimeWindow = time.Minute

// Config configures a Source.
type Config struct {
	TripUpdatesURL string
	Headers        map[string]string
	Timeout        time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Source is a board.PredictionSource backed by a GTFS-Realtime feed.
type Source struct {
	url     string
	headers map[string]string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

var _ board.PredictionSource = (*Source)(nil)

func NewSource(cfg Config) *Source {
	s := &Source{
		url:     cfg.TripUpdatesURL,
		headers: cfg.Headers,
		timeout: cfg.Timeout,
		client:  cfg.HTTPClient,
		logger:  cfg.Logger,
	}
	if s.timeout <= 0 {
		s.timeout = mbta.DefaultTimeout
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slog.String("component", "gtfs_realtime"))
	return s
}

// Predictions downloads the feed and labels every trip that carries delay
// information. The feed is not filtered by stop or mode.
func (s *Source) Predictions(ctx context.Context, stop models.StopID, mode models.RouteType) (models.Predictions, error) {
	started := time.Now()
	feed, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	preds := StatusesFromTrips(feed.Trips)
	logging.LogOperation(s.logger, "gtfs_realtime_loaded",
		slog.Int("trips", len(feed.Trips)),
		slog.Int("labelled", len(preds)),
		slog.Duration("duration", time.Since(started)))
	return preds, nil
}

func (s *Source) load(ctx context.Context) (*gtfs.Realtime, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &mbta.FetchError{Path: s.url, Err: err}
	}
	for key, value := range s.headers {
		req.Header.Add(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &mbta.FetchError{Path: s.url, Err: err}
	}
	defer logging.SafeCloseWithLogging(resp.Body, s.logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, &mbta.FetchError{Path: s.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &mbta.FetchError{Path: s.url, StatusCode: resp.StatusCode, Err: err}
	}

	feed, err := gtfs.ParseRealtime(b, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: parsing trip updates: %v", board.ErrMalformedResponse, err)
	}
	return feed, nil
}

// StatusesFromTrips labels each trip by the first delay found on its stop time
// updates. Trips without any delay are left out.
func StatusesFromTrips(trips []gtfs.Trip) models.Predictions {
	preds := make(models.Predictions, len(trips))
	for _, trip := range trips {
		if trip.ID.ID == "" {
			continue
		}
		delay, ok := firstDelay(trip)
		if !ok {
			continue
		}
		preds[models.TripID(trip.ID.ID)] = StatusLabel(delay)
	}
	return preds
}

func firstDelay(trip gtfs.Trip) (time.Duration, bool) {
	for _, stu := range trip.StopTimeUpdates {
		if stu.Arrival != nil && stu.Arrival.Delay != nil {
			return *stu.Arrival.Delay, true
		}
		if stu.Departure != nil && stu.Departure.Delay != nil {
			return *stu.Departure.Delay, true
		}
	}
	return 0, false
}

// StatusLabel turns a schedule deviation into a board status.
func StatusLabel(delay time.Duration) string {
	switch {
	case delay >= OnTimeWindow:
		return fmt.Sprintf("Delayed %d min", int(delay/time.Minute))
	case delay <= -OnTimeWindow:
		return fmt.Sprintf("Early %d min", int(-delay/time.Minute))
	default:
		return "On time"
	}
}
