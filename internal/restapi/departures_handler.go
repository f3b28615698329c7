package restapi

import (
	"net/http"

	"ferryboard/internal/models"
	"ferryboard/internal/schedule"
	"ferryboard/internal/utils"
)

// departureBoardHandler serves the board of a configured target.
func (api *RestAPI) departureBoardHandler(w http.ResponseWriter, r *http.Request) {
	// Board names are free-form; only configured names resolve.
	target, ok := api.Config.Target(utils.ExtractIDFromParams(r, "name"))
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	api.sendDepartureBoard(w, r, target)
}

// departuresForStopHandler answers an ad-hoc route, direction and stop query.
func (api *RestAPI) departuresForStopHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	target := schedule.Target{
		RouteID:     utils.SanitizeInput(query.Get("route_id")),
		DirectionID: utils.SanitizeInput(query.Get("direction_id")),
		StopID:      utils.SanitizeInput(query.Get("stop_id")),
	}

	if fieldErrors := utils.ValidateDepartureQuery(target.RouteID, target.DirectionID, target.StopID); len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	api.sendDepartureBoard(w, r, target)
}

func (api *RestAPI) sendDepartureBoard(w http.ResponseWriter, r *http.Request, target schedule.Target) {
	if api.GtfsManager.Snapshot() == nil {
		api.serviceUnavailableResponse(w, r)
		return
	}

	now, fieldErrors := utils.ParseTimeParameter(r.URL.Query().Get("time"), api.GtfsManager.Now())
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	loc := api.GtfsManager.Location()
	now = now.In(loc)
	occurrences := api.GtfsManager.RemainingStops(target, now)
	board := models.NewDepartureBoard(target, occurrences, loc, now)

	api.sendResponse(w, r, models.NewEntryResponse(board))
}
