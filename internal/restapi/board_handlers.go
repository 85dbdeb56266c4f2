package restapi

import (
	"bytes"
	"fmt"
	"html"
	"net/http"

	"stationboard.org/internal/models"
	"stationboard.org/internal/webui"
)

const failurePage = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>Board unavailable</title></head>
<body><h1>Board unavailable</h1><p>%s</p></body></html>
`

// boardPageHandler runs one aggregation and renders the HTML board.
func (api *RestAPI) boardPageHandler(w http.ResponseWriter, r *http.Request) {
	b, err := api.Board.Build(r.Context())
	if err != nil {
		status, text := boardFailureStatus(err)
		api.sendHTML(w, r, status, failureBody(text))
		return
	}

	var buf bytes.Buffer
	if err := api.renderer.RenderBoard(&buf, webui.NewPage(b, api.Now())); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendHTML(w, r, http.StatusOK, buf.Bytes())
}

func failureBody(text string) []byte {
	return []byte(fmt.Sprintf(failurePage, html.EscapeString(text)))
}

type boardData struct {
	Entry *models.Board `json:"entry"`
}

// boardHandler returns the board in the JSON envelope.
func (api *RestAPI) boardHandler(w http.ResponseWriter, r *http.Request) {
	b, err := api.Board.Build(r.Context())
	if err != nil {
		api.boardErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewOKResponse(boardData{Entry: b}))
}

// debugBoardHandler dumps a freshly built board. It needs a debug key.
func (api *RestAPI) debugBoardHandler(w http.ResponseWriter, r *http.Request) {
	if api.RequestHasInvalidDebugKey(r) {
		api.invalidDebugKeyResponse(w, r)
		return
	}

	b, err := api.Board.Build(r.Context())
	var buf bytes.Buffer
	if err != nil {
		err = api.renderer.RenderDebug(&buf, "Board build failed", err)
	} else {
		err = api.renderer.RenderDebug(&buf, "Board "+b.RunID, b)
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendHTML(w, r, http.StatusOK, buf.Bytes())
}
