package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/camden-git/moviesysbackend/services"
)

// APIErrorResponse is the body of every error response.
type APIErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("error encoding JSON response")
		}
	}
}

// WriteAPIError writes {"error": message} with the given status.
func WriteAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIErrorResponse{Error: message})
}

// errorWriter maps service errors onto HTTP responses. Persistence errors only
// reach the client verbatim when Verbose is set.
type errorWriter struct {
	Verbose bool
}

func (ew errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	var serr *services.Error
	if !errors.As(err, &serr) {
		serr = &services.Error{Kind: services.KindPersistence, Message: "unexpected error", Err: err}
	}

	switch serr.Kind {
	case services.KindValidation:
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{Error: serr.Message, Fields: serr.Fields})
	case services.KindNotFound:
		WriteAPIError(w, http.StatusNotFound, serr.Message)
	case services.KindConflict:
		WriteAPIError(w, http.StatusConflict, serr.Message)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		message := http.StatusText(http.StatusInternalServerError)
		if ew.Verbose {
			message = serr.Error()
		}
		WriteAPIError(w, http.StatusInternalServerError, message)
	}
}
