package utils

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// ExtractIDFromParams reads a route parameter, dropping a trailing ".json".
// The router has already unescaped it, so names may contain spaces.
func ExtractIDFromParams(r *http.Request, paramName string) string {
	return strings.TrimSuffix(httprouter.ParamsFromContext(r.Context()).ByName(paramName), ".json")
}
