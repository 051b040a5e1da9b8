package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/casaleverde/bookingengine/internal/booking"
)

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteEngineError maps the engine error taxonomy to HTTP statuses:
// validation failures are 422 and recoverable, unresolved capacity is a 409
// hard stop, upstream failures are 502, anything else is a 500.
func WriteEngineError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var validationErr booking.ValidationError
	var capacityErr booking.UnresolvedCapacityError
	var upstreamErr booking.UpstreamFetchError
	switch {
	case errors.As(err, &validationErr):
		WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: validationErr.Reason})
	case errors.As(err, &capacityErr):
		WriteJSON(w, http.StatusConflict, errorBody{Error: capacityErr.Error()})
	case errors.As(err, &upstreamErr):
		logger.Warn().Err(err).Str("service", upstreamErr.Service).Msg("Upstream failure surfaced to client")
		WriteJSON(w, http.StatusBadGateway, errorBody{Error: upstreamErr.Error()})
	case errors.Is(err, booking.ErrVoucherNotFound):
		WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	default:
		logger.Error().Err(err).Msg("Unhandled engine error")
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
