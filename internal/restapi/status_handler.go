package restapi

import (
	"net/http"

	"ferryboard/internal/models"
)

func (api *RestAPI) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := models.NewRefreshStatus(api.GtfsManager.Status())
	api.sendResponse(w, r, models.NewEntryResponse(status))
}

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	data := models.NewCurrentTimeData(api.GtfsManager.Now(), api.GtfsManager.Location())
	api.sendResponse(w, r, models.NewOKResponse(data))
}
