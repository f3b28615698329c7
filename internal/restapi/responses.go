package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"ferryboard/internal/logging"
	"ferryboard/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	setJSONResponseType(&w)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.writeError(w, r, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) logger(r *http.Request) *slog.Logger {
	fallback := api.Logger
	if fallback == nil {
		fallback = slog.Default()
	}
	return logging.FromContextOr(r.Context(), fallback)
}

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}
