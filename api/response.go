package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
)

const maxBodyBytes = 1 << 20

// envelope is the JSON object every endpoint answers with.
type envelope map[string]any

// exposeDetails adds the underlying cause to error bodies.
var exposeDetails bool

// SetDevelopment toggles development mode for error responses.
func SetDevelopment(dev bool) {
	exposeDetails = dev
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("encode response", zap.Error(err))
	}
}

// writeError maps err to its status code and writes the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	body := envelope{"success": false, "error": apperr.Message(err)}
	if exposeDetails {
		var fields validation.Errors
		switch {
		case errors.As(err, &fields):
			body["details"] = fields
		case errors.Unwrap(err) != nil || status >= http.StatusInternalServerError:
			body["details"] = err.Error()
		}
	}
	writeJSON(w, status, body)
}

// binder reads request bodies and checks them against the schema registry
// before decoding.
type binder struct {
	schemas *validation.Registry
}

func (b binder) read(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "Invalid request body", err)
	}
	return bytes.TrimSpace(data), nil
}

// check validates data against schema. msg replaces the violation text when
// set.
func (b binder) check(r *http.Request, schema string, data []byte, msg string) error {
	return b.schemas.Validate(r.Context(), schema, data, msg)
}

func decode(data []byte, v any) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid JSON body", err)
	}
	return nil
}

// bind reads, validates and decodes the body into v. An empty schema skips
// validation.
func (b binder) bind(r *http.Request, schema, msg string, v any) error {
	data, err := b.read(r)
	if err != nil {
		return err
	}
	if schema != "" {
		if err := b.check(r, schema, data, msg); err != nil {
			return err
		}
	}
	return decode(data, v)
}

// internal wraps a store failure with the operation that hit it.
func internal(op string, err error) error {
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}
