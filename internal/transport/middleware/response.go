package middleware

import (
	"encoding/json"
	"net/http"

	appErrors "github.com/frahmantamala/rti-filing/internal"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAppError(w http.ResponseWriter, appErr *appErrors.AppError) {
	status, body := appErr.ToHTTPResponse()
	writeJSON(w, status, body)
}
