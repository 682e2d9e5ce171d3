package response

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Detail is the error body shape used by every non-2xx response. Clients
// surface the text verbatim.
type Detail struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

// Error writes a {detail} body with the given status.
func Error(w http.ResponseWriter, status int, detail string) error {
	return WriteJSON(w, status, Detail{Detail: detail})
}

// ValidationError flattens validator errors into a single {detail} body.
func ValidationError(w http.ResponseWriter, errs validator.ValidationErrors) error {
	var msg string
	for _, err := range errs {
		msg += err.Field() + ": " + err.Tag() + "; "
	}

	return WriteJSON(w, http.StatusBadRequest, Detail{Detail: msg})
}
