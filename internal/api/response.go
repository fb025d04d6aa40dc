package api

import (
	"encoding/json"
	"net/http"

	dasherrors "github.com/dsrs-analytics/taskdash/internal/errors"
)

// APIError is the standard error response format.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
}

// JSONResponse writes a successful JSON response.
func JSONResponse(w http.ResponseWriter, data any) {
	JSONResponseStatus(w, data, http.StatusOK)
}

// JSONResponseStatus writes a JSON response with a specific status code.
func JSONResponseStatus(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// JSONError writes a simple error response.
func JSONError(w http.ResponseWriter, message string, status int) {
	JSONResponseStatus(w, APIError{Error: message}, status)
}

// HandleError inspects error type and writes appropriate response.
func HandleError(w http.ResponseWriter, err error) {
	if dashErr := dasherrors.AsDashError(err); dashErr != nil {
		JSONResponseStatus(w, APIError{
			Error: dashErr.What,
			Code:  string(dashErr.Code),
			Why:   dashErr.Why,
			Fix:   dashErr.Fix,
		}, dashErr.HTTPStatus())
		return
	}
	// Fallback for unknown errors
	JSONError(w, err.Error(), http.StatusInternalServerError)
}
