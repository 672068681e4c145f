package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

var (
	errEmptyBody   = market.Validation("Request body is required")
	errInvalidBody = market.Validation("Invalid JSON body")
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// writeError maps err onto the response envelope. Only messages of
// *market.Error reach the client; everything else is logged and sent as 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var e *market.Error
	if !errors.As(err, &e) {
		logger.Error("request failed",
			"event", "http_internal_error",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err.Error(),
		)
		writeErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeErrorMessage(w, statusFor(e.Kind), e.Message)
}

func statusFor(k market.Kind) int {
	switch k {
	case market.KindValidation, market.KindConflict:
		return http.StatusBadRequest
	case market.KindUnauthorized:
		return http.StatusUnauthorized
	case market.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. The decoder's error text names Go types
// and fields, so clients get a fixed message and the cause is logged.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	h.Logger.Debug("request body rejected",
		"event", "http_bad_body",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err.Error(),
	)
	var quoted *quotedNumberError
	if errors.As(err, &quoted) {
		return market.Validation(quoted.Error())
	}
	return errInvalidBody
}
