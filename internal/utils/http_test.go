package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestExtractIDFromParams(t *testing.T) {
	testCases := []struct {
		name string
		path string
		want string
	}{
		{name: "trip id", path: "T1", want: "T1"},
		{name: "json suffix", path: "T1.json", want: "T1"},
		{name: "dotted id", path: "R1.ferry.json", want: "R1.ferry"},
		{name: "escaped board name", path: "Ferry%20to%20Seattle", want: "Ferry to Seattle"},
		{name: "json only as suffix", path: "notes.json.bak", want: "notes.json.bak"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := httprouter.New()

			var result string
			router.HandlerFunc(http.MethodGet, "/api/departures/:name", func(w http.ResponseWriter, r *http.Request) {
				result = ExtractIDFromParams(r, "name")
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/departures/"+tc.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.want, result)
		})
	}
}
