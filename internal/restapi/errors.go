package restapi

import (
	"net/http"

	"stationboard.org/internal/board"
	"stationboard.org/internal/logging"
	"stationboard.org/internal/models"
)

// invalidDebugKeyResponse sends a 401 Unauthorized response
func (api *RestAPI) invalidDebugKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewResponse(http.StatusUnauthorized, nil, "permission denied"))
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request_failed", err)
	api.sendResponse(w, r, models.NewResponse(http.StatusInternalServerError, nil, "internal server error"))
}

// boardErrorResponse reports a failed aggregation without exposing its cause.
func (api *RestAPI) boardErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status, text := boardFailureStatus(err)
	api.sendResponse(w, r, models.NewResponse(status, nil, text))
}

// boardFailureStatus maps an aggregation error to the status and generic text
// shown to clients. Upstream faults are 502, everything else 500.
func boardFailureStatus(err error) (int, string) {
	switch board.ErrorKind(err) {
	case "transport_fetch", "malformed_response", "malformed_timestamp", "no_schedule_data":
		return http.StatusBadGateway, "departure information is temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
