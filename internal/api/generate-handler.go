package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/koenighotze/search-assistant/internal/metrics"
	"github.com/koenighotze/search-assistant/internal/query"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = fmt.Errorf("request body is larger than %d bytes", maxBodyBytes)

func createGenerateHandler(answerer Answerer, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx, cancel := withTimeout(r.Context(), timeout)
		defer cancel()

		answer, err := answerer.GenerateAnswer(ctx, req)
		if err != nil {
			writeError(w, r, err)
			return
		}

		loggerFrom(r).Debug("Generated response", "response", answer)
		writeJSON(w, http.StatusOK, query.Response{Result: answer})
	}
}

// decodeRequest expects exactly one JSON object with string fields. Anything
// else is treated like an empty query, except a body over maxBodyBytes.
func decodeRequest(w http.ResponseWriter, r *http.Request) (query.GenerateRequest, error) {
	var req query.GenerateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(&req)
	if err == nil {
		if _, tokErr := dec.Token(); !errors.Is(tokErr, io.EOF) {
			err = fmt.Errorf("unexpected data after the request object: %w", tokErr)
		}
	}
	if err == nil {
		return req, nil
	}

	loggerFrom(r).Warn("Cannot parse request body", "error", err)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return req, query.ValidationError(errBodyTooLarge)
	}
	return req, query.ValidationError(query.ErrEmptyInput)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case query.KindOf(err) == query.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := query.KindOf(err)
	status := statusFor(err)
	metrics.RecordError(kind.String())

	if status >= http.StatusInternalServerError {
		loggerFrom(r).Error("Cannot generate answer",
			"kind", kind.String(),
			"error", err)
	} else {
		loggerFrom(r).Warn("Rejected request", "error", err)
	}

	writeJSON(w, status, query.Response{Result: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Warn("Cannot write response", "error", err)
	}
}
