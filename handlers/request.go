package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
)

// maxBodyBytes caps actor and movie request bodies.
const maxBodyBytes = 1 << 20

// decodeBody reads a JSON object into dst. An empty body decodes as {} so the
// required-field rules, not the decoder, report what is missing.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		WriteAPIError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		problem := "must be " + describeType(typeErr.Type)
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{
			Error:  "Invalid request body: " + typeErr.Field + " " + problem,
			Fields: map[string]string{typeErr.Field: problem},
		})
	case errors.As(err, &typeErr):
		WriteAPIError(w, http.StatusBadRequest, "Invalid request body: expected a JSON object")
	default:
		WriteAPIError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	return false
}

func describeType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a positive integer"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a valid value"
	}
}
