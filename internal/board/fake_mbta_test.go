package board

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"stationboard.org/internal/mbta"
)

// fakeMBTA serves canned JSON:API documents and records the queries it receives.
type fakeMBTA struct {
	mu sync.Mutex

	routes      []string
	routeAttrs  map[string]string
	predictions []string
	departures  map[string][]string
	arrivals    []string
	failPath    string

	requests []*url.URL
}

func newFakeMBTA() *fakeMBTA {
	return &fakeMBTA{
		routeAttrs: map[string]string{},
		departures: map[string][]string{},
	}
}

func (f *fakeMBTA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL)
	f.mu.Unlock()

	if f.failPath != "" && r.URL.Path == f.failPath {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	switch {
	case r.URL.Path == "/routes":
		items := make([]string, 0, len(f.routes))
		for _, id := range f.routes {
			items = append(items, fmt.Sprintf(`{"type":"route","id":%q}`, id))
		}
		writeCollection(w, items)
	case strings.HasPrefix(r.URL.Path, "/routes/"):
		id := strings.TrimPrefix(r.URL.Path, "/routes/")
		attrs, ok := f.routeAttrs[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"data":{"type":"route","id":%q,"attributes":%s}}`, id, attrs)
	case r.URL.Path == "/predictions":
		writeCollection(w, f.predictions)
	case r.URL.Path == "/schedules" && q.Get("filter[direction_id]") == "0":
		writeCollection(w, f.departures[q.Get("filter[route]")])
	case r.URL.Path == "/schedules" && q.Get("filter[direction_id]") == "1":
		writeCollection(w, f.arrivals)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeMBTA) queries(path string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []url.Values
	for _, u := range f.requests {
		if u.Path == path {
			out = append(out, u.Query())
		}
	}
	return out
}

func (f *fakeMBTA) client(t *testing.T) *mbta.Client {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return mbta.NewClient(mbta.Config{BaseURL: server.URL})
}

func writeCollection(w http.ResponseWriter, items []string) {
	if items == nil {
		items = []string{}
	}
	fmt.Fprintf(w, `{"data":[%s]}`, strings.Join(items, ","))
}

func routeAttributesJSON(destination, direction, longName, color string) string {
	b, _ := json.Marshal(map[string]any{
		"direction_destinations": []string{destination, "North Station"},
		"direction_names":        []string{direction, "Inbound"},
		"long_name":              longName,
		"color":                  color,
	})
	return string(b)
}

func predictionJSON(id, trip string, status *string) string {
	s := "null"
	if status != nil {
		s = fmt.Sprintf("%q", *status)
	}
	return fmt.Sprintf(`{"type":"prediction","id":%q,"attributes":{"status":%s},"relationships":{"trip":{"data":{"type":"trip","id":%q}}}}`, id, s, trip)
}

func departureJSON(id, route, trip, departure string) string {
	return fmt.Sprintf(`{"type":"schedule","id":%q,"attributes":{"arrival_time":null,"departure_time":%q},"relationships":{"route":{"data":{"type":"route","id":%q}},"trip":{"data":{"type":"trip","id":%q}}}}`, id, departure, route, trip)
}

func arrivalJSON(id, route, trip, arrival string) string {
	return fmt.Sprintf(`{"type":"schedule","id":%q,"attributes":{"arrival_time":%q,"departure_time":null},"relationships":{"route":{"data":{"type":"route","id":%q}},"trip":{"data":{"type":"trip","id":%q}}}}`, id, arrival, route, trip)
}

func strPtr(s string) *string { return &s }
