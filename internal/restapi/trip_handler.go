package restapi

import (
	"net/http"

	"ferryboard/internal/models"
	"ferryboard/internal/schedule"
	"ferryboard/internal/utils"
)

// tripHandler lists a trip's stop times on a service date, defaulting to today.
func (api *RestAPI) tripHandler(w http.ResponseWriter, r *http.Request) {
	tripID := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(tripID); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	snapshot := api.GtfsManager.Snapshot()
	if snapshot == nil {
		api.serviceUnavailableResponse(w, r)
		return
	}

	loc := api.GtfsManager.Location()
	now := api.GtfsManager.Now()
	date, fieldErrors := utils.ParseDateParameter(r.URL.Query().Get("date"), now, loc)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	trip, ok := snapshot.Index.Trip(tripID)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	occurrences := schedule.TripOccurrences(snapshot, tripID, date)
	api.sendResponse(w, r, models.NewEntryResponse(models.NewTripSchedule(trip, date, occurrences, loc, now)))
}
