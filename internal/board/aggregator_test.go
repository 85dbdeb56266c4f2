package board

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stationboard.org/internal/logging"
	"stationboard.org/internal/mbta"
	"stationboard.org/internal/models"
)

var northStation = models.Stop{Name: "North Station", ID: "place-north"}

func lowellScenario() *fakeMBTA {
	fake := newFakeMBTA()
	fake.routes = []string{"CR-Lowell"}
	fake.routeAttrs["CR-Lowell"] = routeAttributesJSON("Lowell", "Outbound", "Lowell Line", "80276C")
	fake.predictions = []string{predictionJSON("p1", "T1", strPtr("On time"))}
	fake.departures["CR-Lowell"] = []string{departureJSON("s1", "CR-Lowell", "T1", "2020-05-03T15:45:00-04:00")}
	return fake
}

func testAggregator(t *testing.T, f Fetcher, preds PredictionSource, now time.Time) (*Aggregator, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	agg := NewAggregator(f, preds, Options{
		Stop:     northStation,
		Location: time.UTC,
		Workers:  2,
		Clock:    FixedClock(now),
		Logger:   logging.NewStructuredLogger(&buf, 0),
	})
	return agg, &buf
}

func TestBuildLowellScenario(t *testing.T) {
	fake := lowellScenario()
	agg, logs := testAggregator(t, fake.client(t), nil, time.Date(2020, 5, 3, 15, 30, 42, 0, time.UTC))

	board, err := agg.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, northStation, board.Stop)
	assert.Equal(t, models.TimeOfDay{Hour: 15, Minute: 30}, board.Cutoff)
	assert.NotEmpty(t, board.RunID)

	require.Equal(t, []models.RouteID{"CR-Lowell"}, board.Departures.Keys())
	rec, ok := board.Departures.Get("CR-Lowell")
	require.True(t, ok)
	assert.Equal(t, models.DepartureRecord{
		RouteMetadata: models.RouteMetadata{Destination: "Lowell", Direction: "Outbound", LongName: "Lowell Line", Color: "80276C"},
		Departure:     "03:45 PM",
		TripStatus:    "On time",
	}, *rec)
	assert.Equal(t, 0, board.Arrivals.Len())

	b, err := json.Marshal(board.Departures)
	require.NoError(t, err)
	assert.JSONEq(t, `{"CR-Lowell":{"destination":"Lowell","direction":"Outbound","long_name":"Lowell Line","color":"80276C","departure":"03:45 PM","trip_status":"On time"}}`, string(b))

	// Every schedule query carries the cutoff.
	for _, q := range fake.queries("/schedules") {
		assert.Equal(t, "15:30", q.Get("filter[min_time]"))
	}
	assert.Len(t, fake.queries("/schedules"), 2)

	out := logs.String()
	assert.Contains(t, out, `"run_id":"`+board.RunID+`"`)
	assert.Contains(t, out, `"stage":"discovery"`)
	assert.Contains(t, out, `"stage":"enrichment"`)
	assert.Contains(t, out, `"stage":"predictions"`)
	assert.Contains(t, out, `"stage":"departures"`)
	assert.Contains(t, out, `"stage":"arrivals"`)
}

func TestBuildMultipleRoutes(t *testing.T) {
	fake := lowellScenario()
	fake.routes = []string{"CR-Lowell", "CR-Fitchburg", "CR-Haverhill", "CR-Newburyport"}
	fake.routeAttrs["CR-Fitchburg"] = routeAttributesJSON("Wachusett", "Outbound", "Fitchburg Line", "80276C")
	fake.routeAttrs["CR-Haverhill"] = routeAttributesJSON("Haverhill", "Outbound", "Haverhill Line", "80276C")
	fake.routeAttrs["CR-Newburyport"] = routeAttributesJSON("Rockport", "Outbound", "Newburyport/Rockport Line", "80276C")
	fake.departures["CR-Haverhill"] = []string{departureJSON("s2", "CR-Haverhill", "T2", "2020-05-03T16:05:00-04:00")}
	fake.arrivals = []string{
		arrivalJSON("a1", "CR-Haverhill", "T20", "2020-05-03T16:40:00-04:00"),
		arrivalJSON("a2", "Orange", "T21", "2020-05-03T16:41:00-04:00"),
		arrivalJSON("a3", "CR-Lowell", "T1", "2020-05-03T16:42:00-04:00"),
	}

	agg, _ := testAggregator(t, fake.client(t), nil, time.Date(2020, 5, 3, 15, 30, 0, 0, time.UTC))
	board, err := agg.Build(context.Background())
	require.NoError(t, err)

	// Discovery order survives the concurrent enrichment.
	assert.Equal(t, []models.RouteID{"CR-Lowell", "CR-Fitchburg", "CR-Haverhill", "CR-Newburyport"}, board.Departures.Keys())

	fitchburg, _ := board.Departures.Get("CR-Fitchburg")
	assert.Equal(t, models.NoDeparture, fitchburg.Departure)
	assert.Equal(t, models.StatusUnavailable, fitchburg.TripStatus)
	assert.Equal(t, "Wachusett", fitchburg.Destination)

	haverhill, _ := board.Departures.Get("CR-Haverhill")
	assert.Equal(t, "04:05 PM", haverhill.Departure)
	assert.Equal(t, models.StatusUnavailable, haverhill.TripStatus)

	assert.Equal(t, []models.RouteID{"CR-Lowell", "CR-Haverhill"}, board.Arrivals.Keys())
	assert.False(t, board.Arrivals.Has("Orange"))
	lowell, _ := board.Arrivals.Get("CR-Lowell")
	assert.Equal(t, models.ArrivalRecord{Arrival: "04:42 PM", TripStatus: "On time", LineName: "Lowell Line"}, lowell)

	assert.Len(t, fake.queries("/routes/CR-Newburyport"), 1)
}

func TestBuildAbortsOnStageFailure(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fakeMBTA)
		wantErr error
	}{
		{
			name:    "discovery unavailable",
			mutate:  func(f *fakeMBTA) { f.failPath = "/routes" },
			wantErr: ErrTransportFetch,
		},
		{
			name:    "predictions unavailable",
			mutate:  func(f *fakeMBTA) { f.failPath = "/predictions" },
			wantErr: ErrTransportFetch,
		},
		{
			name:    "schedules unavailable",
			mutate:  func(f *fakeMBTA) { f.failPath = "/schedules" },
			wantErr: ErrTransportFetch,
		},
		{
			name: "route metadata incomplete",
			mutate: func(f *fakeMBTA) {
				f.routeAttrs["CR-Lowell"] = `{"direction_destinations":[],"direction_names":["Outbound"],"long_name":"Lowell Line","color":"80276C"}`
			},
			wantErr: ErrMalformedResponse,
		},
		{
			name: "departure missing trip",
			mutate: func(f *fakeMBTA) {
				f.departures["CR-Lowell"] = []string{`{"type":"schedule","id":"s1","attributes":{"departure_time":"2020-05-03T15:45:00-04:00"}}`}
			},
			wantErr: ErrNoScheduleData,
		},
		{
			name: "departure timestamp malformed",
			mutate: func(f *fakeMBTA) {
				f.departures["CR-Lowell"] = []string{departureJSON("s1", "CR-Lowell", "T1", "15:45")}
			},
			wantErr: ErrMalformedTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := lowellScenario()
			tt.mutate(fake)
			agg, logs := testAggregator(t, fake.client(t), nil, time.Date(2020, 5, 3, 15, 30, 0, 0, time.UTC))

			board, err := agg.Build(context.Background())
			require.Error(t, err)
			assert.Nil(t, board)
			assert.ErrorIs(t, err, tt.wantErr)

			assert.Contains(t, logs.String(), `"msg":"aggregation_failed"`)
			assert.Contains(t, logs.String(), `"error_kind":"`+ErrorKind(tt.wantErr)+`"`)
		})
	}
}

func TestBuildWithCancelledContext(t *testing.T) {
	fake := lowellScenario()
	agg, _ := testAggregator(t, fake.client(t), nil, time.Date(2020, 5, 3, 15, 30, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	board, err := agg.Build(ctx)
	require.Error(t, err)
	assert.Nil(t, board)
	assert.ErrorIs(t, err, context.Canceled)
}

// stubPredictions is a PredictionSource returning fixed data.
type stubPredictions struct {
	preds models.Predictions
	err   error
	calls atomic.Int32
}

func (s *stubPredictions) Predictions(ctx context.Context, stop models.StopID, mode models.RouteType) (models.Predictions, error) {
	s.calls.Add(1)
	return s.preds, s.err
}

func TestBuildUsesInjectedPredictionSource(t *testing.T) {
	fake := lowellScenario()
	stub := &stubPredictions{preds: models.Predictions{"T1": "Delayed 4 min"}}
	agg, _ := testAggregator(t, fake.client(t), stub, time.Date(2020, 5, 3, 15, 30, 0, 0, time.UTC))

	board, err := agg.Build(context.Background())
	require.NoError(t, err)

	rec, _ := board.Departures.Get("CR-Lowell")
	assert.Equal(t, "Delayed 4 min", rec.TripStatus)
	assert.Equal(t, int32(1), stub.calls.Load())
	assert.Empty(t, fake.queries("/predictions"))
}

// countingFetcher wraps a Fetcher and tracks the peak number of concurrent calls.
type countingFetcher struct {
	next     Fetcher
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingFetcher) Fetch(ctx context.Context, path string, params url.Values) (*mbta.Document, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return c.next.Fetch(ctx, path, params)
}

func TestBuildRespectsWorkerLimit(t *testing.T) {
	fake := lowellScenario()
	fake.routes = nil
	for _, id := range []string{"CR-A", "CR-B", "CR-C", "CR-D", "CR-E", "CR-F"} {
		fake.routes = append(fake.routes, id)
		fake.routeAttrs[id] = routeAttributesJSON(id, "Outbound", id+" Line", "80276C")
	}
	counting := &countingFetcher{next: fake.client(t)}
	agg, _ := testAggregator(t, counting, nil, time.Date(2020, 5, 3, 15, 30, 0, 0, time.UTC))

	board, err := agg.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, board.Departures.Len())

	// Two workers plus the independent predictions or arrivals call.
	assert.LessOrEqual(t, counting.peak.Load(), int32(3))
}

func TestBuildRunsAreIndependent(t *testing.T) {
	fake := lowellScenario()
	agg, _ := testAggregator(t, fake.client(t), nil, time.Date(2020, 5, 3, 15, 30, 0, 0, time.UTC))

	first, err := agg.Build(context.Background())
	require.NoError(t, err)
	second, err := agg.Build(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotSame(t, first.Departures, second.Departures)
	assert.Len(t, fake.queries("/routes"), 2)
}
