package restapi

import (
	"net/http"

	"stationboard.org/internal/models"
)

// currentTimeHandler writes the current time in the agency timezone.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	timeData := models.NewCurrentTimeData(api.Now())
	response := models.NewOKResponse(timeData)

	api.sendResponse(w, r, response)
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewOKResponse(map[string]string{
		"status": "ok",
		"env":    api.Config.Env.String(),
		"stop":   string(api.Board.Stop().ID),
	}))
}
