package restapi

import (
	"ferryboard/internal/app"
)

type RestAPI struct {
	*app.Application
}

func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{Application: app}
}
