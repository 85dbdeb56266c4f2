package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"stationboard.org/internal/app"
	"stationboard.org/internal/appconf"
	"stationboard.org/internal/board"
	"stationboard.org/internal/logging"
	"stationboard.org/internal/models"
)

// stubBoard returns a fixed board or error and counts builds.
type stubBoard struct {
	board  *models.Board
	err    error
	builds atomic.Int32
}

func (s *stubBoard) Build(ctx context.Context) (*models.Board, error) {
	s.builds.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.board, nil
}

func (s *stubBoard) Stop() models.Stop {
	return models.Stop{Name: "North Station", ID: "place-north"}
}

var testNow = time.Date(2024, 3, 1, 20, 47, 0, 0, time.UTC)

func sampleBoard() *models.Board {
	deps := &models.Departures{}
	deps.Set("CR-Lowell", &models.DepartureRecord{
		RouteMetadata: models.RouteMetadata{Destination: "Lowell", Direction: "Outbound", LongName: "Lowell Line", Color: "80276C"},
		Departure:     "04:10 PM",
		TripStatus:    "On time",
	})
	deps.Set("CR-Fitchburg", &models.DepartureRecord{
		RouteMetadata: models.RouteMetadata{Destination: "Wachusett", Direction: "Outbound", LongName: "Fitchburg Line", Color: "80276C"},
		Departure:     models.NoDeparture,
		TripStatus:    models.StatusUnavailable,
	})
	arrs := &models.Arrivals{}
	arrs.Set("CR-Lowell", models.ArrivalRecord{Arrival: "03:58 PM", TripStatus: "Delayed 5 min", LineName: "Lowell Line"})

	return &models.Board{
		RunID:      "run-1",
		Stop:       models.Stop{Name: "North Station", ID: "place-north"},
		Cutoff:     models.TimeOfDay{Hour: 15, Minute: 47},
		Departures: deps,
		Arrivals:   arrs,
	}
}

// createTestAPI builds a RestAPI around builder with rate limiting disabled.
func createTestAPI(t *testing.T, builder app.BoardBuilder) (*RestAPI, *bytes.Buffer) {
	t.Helper()
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.Server.RateLimit = 0
	cfg.Server.DebugKeys = []string{"ops"}

	var logs bytes.Buffer
	api := NewRestAPI(&app.Application{
		Config: cfg,
		Logger: logging.NewStructuredLogger(&logs, 0),
		Board:  builder,
		Clock:  board.FixedClock(testNow),
	})
	t.Cleanup(api.Stop)
	return api, &logs
}

func serve(t *testing.T, api *RestAPI, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, api *RestAPI, target string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, api, httptest.NewRequest(http.MethodGet, target, nil))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) models.ResponseModel {
	t.Helper()
	var response models.ResponseModel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	return response
}
