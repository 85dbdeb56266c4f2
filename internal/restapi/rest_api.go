package restapi

import (
	"stationboard.org/internal/app"
	"stationboard.org/internal/webui"
)

type RestAPI struct {
	*app.Application
	renderer    *webui.Renderer
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		renderer:    webui.MustNewRenderer(),
		rateLimiter: NewRateLimitMiddleware(app.Config.Server.RateLimit, app.Config.Server.RateBurst),
	}
}

// Stop releases the background resources held by the middleware.
func (api *RestAPI) Stop() {
	api.rateLimiter.Stop()
}
