package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (api *RestAPI) validateAPIKey(finalHandler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	}
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.NotFound = http.HandlerFunc(api.sendNotFound)

	router.HandlerFunc(http.MethodGet, "/api/departures", api.validateAPIKey(api.departuresForStopHandler))
	router.HandlerFunc(http.MethodGet, "/api/departures/:name", api.validateAPIKey(api.departureBoardHandler))
	router.HandlerFunc(http.MethodGet, "/api/trips/:id", api.validateAPIKey(api.tripHandler))
	router.HandlerFunc(http.MethodGet, "/api/status", api.validateAPIKey(api.statusHandler))
	router.HandlerFunc(http.MethodGet, "/api/current-time", api.validateAPIKey(api.currentTimeHandler))

	if api.Metrics != nil && api.Config != nil && api.Config.MetricsEnabled {
		router.Handler(http.MethodGet, "/metrics", api.Metrics.Handler())
	}
}

// Handler returns the routed API wrapped in its middleware chain.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	api.SetRoutes(router)

	var handler http.Handler = router
	handler = CompressionMiddleware(handler)
	handler = api.WithSecurityHeaders(handler)
	var recorder HTTPRecorder
	if api.Metrics != nil {
		recorder = api.Metrics
	}
	handler = NewRequestLoggingMiddleware(api.Logger, recorder)(handler)
	return handler
}
