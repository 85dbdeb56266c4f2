package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"stationboard.org/internal/models"
)

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/", api.boardPageHandler)
	router.HandlerFunc(http.MethodGet, "/api/board.json", api.boardHandler)
	router.HandlerFunc(http.MethodGet, "/api/current-time.json", api.currentTimeHandler)
	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	router.HandlerFunc(http.MethodGet, "/debug/board", api.debugBoardHandler)

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendResponse(w, r, models.NewResponse(http.StatusNotFound, nil, "not found"))
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendResponse(w, r, models.NewResponse(http.StatusMethodNotAllowed, nil, "method not allowed"))
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		api.Logger.Error("panic serving request", "path", r.URL.Path, "panic", v)
		api.sendResponse(w, r, models.NewResponse(http.StatusInternalServerError, nil, "internal server error"))
	}
}

// Handler returns the router wrapped in the middleware chain. Requests pass
// through logging, security headers, rate limiting and compression in that order.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	router.HandleOPTIONS = false
	api.SetRoutes(router)

	var handler http.Handler = router
	handler = NewCompressionMiddleware(DefaultCompressionConfig())(handler)
	handler = api.rateLimiter.Handler(handler)
	handler = securityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return handler
}
