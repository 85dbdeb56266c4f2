package restapi

import (
	"encoding/json"
	"net/http"

	"stationboard.org/internal/logging"
	"stationboard.org/internal/models"
)

// writeJSON writes the envelope with its code as the HTTP status.
func writeJSON(w http.ResponseWriter, response models.ResponseModel) error {
	body, err := json.Marshal(response)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Code)
	_, err = w.Write(append(body, '\n'))
	return err
}

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	if err := writeJSON(w, response); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to write response", err)
	}
}

func (api *RestAPI) sendHTML(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to write page", err)
	}
}
