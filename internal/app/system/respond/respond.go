// Package respond writes the JSON envelope every endpoint returns:
// {"success": bool, "message": string, ...payload}.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// M is a payload merged into the envelope.
type M map[string]any

// JSON writes status and body as JSON.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK writes a success envelope with payload fields merged in.
func OK(w http.ResponseWriter, message string, payload M) {
	write(w, http.StatusOK, true, message, payload)
}

// Created is OK with 201.
func Created(w http.ResponseWriter, message string, payload M) {
	write(w, http.StatusCreated, true, message, payload)
}

// Error classifies err, logs the cause, and writes a failure envelope.
// Only the classified message reaches the client.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, fallback string) {
	ae := apperr.As(err, fallback)
	status := ae.Status()
	if log != nil {
		fields := []zap.Field{
			zap.String("kind", string(ae.Kind)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if ae.Cause != nil {
			fields = append(fields, zap.Error(ae.Cause))
		}
		if status >= http.StatusInternalServerError {
			log.Error(ae.Message, fields...)
		} else {
			log.Debug(ae.Message, fields...)
		}
	}
	write(w, status, false, ae.Message, nil)
}

func write(w http.ResponseWriter, status int, success bool, message string, payload M) {
	body := make(M, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = success
	if message != "" {
		body["message"] = message
	}
	JSON(w, status, body)
}

// Decode reads a JSON request body into dst. Unknown fields are allowed.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("malformed JSON body")
	}
	return nil
}
