package app

import (
	"crypto/subtle"
	"net/http"
)

func (app *Application) RequestHasInvalidDebugKey(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	return app.IsInvalidDebugKey(key)
}

// IsInvalidDebugKey reports whether key fails to match any configured debug key.
// With no keys configured every key is invalid.
func (app *Application) IsInvalidDebugKey(key string) bool {
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.Server.DebugKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return false
		}
	}

	return true
}
