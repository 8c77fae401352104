// Package validation checks request payloads against embedded JSON schemas.
package validation

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
)

// Schema names.
const (
	Register     = "register"
	Login        = "login"
	VerifyEmail  = "verify_email"
	Job          = "job"
	Course       = "course"
	Grades       = "grades"
	CourseApply  = "course_apply"
	Document     = "document"
	Decision     = "decision"
	StatusChange = "status"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// Errors collects every violation of a payload.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, f := range e {
		parts[i] = f.String()
	}
	return strings.Join(parts, "; ")
}

// Registry holds the compiled schemas keyed by name.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

// NewRegistry compiles every embedded schema.
func NewRegistry() (*Registry, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}

	r := &Registry{schemas: make(map[string]*jsonschema.Schema, len(entries))}
	for _, e := range entries {
		raw, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		if err := r.Add(strings.TrimSuffix(e.Name(), ".json"), raw); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Add compiles raw and registers it under name, replacing any previous one.
func (r *Registry) Add(name string, raw []byte) error {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, rs); err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}

	r.mu.Lock()
	r.schemas[name] = rs
	r.mu.Unlock()

	return nil
}

// Names lists the registered schemas in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks data against the named schema. Violations come back as an
// apperr validation error with msg as its caller-facing text and the
// collected Errors as its cause. An empty msg uses the first violation.
func (r *Registry) Validate(ctx context.Context, name string, data []byte, msg string) error {
	r.mu.RLock()
	rs, ok := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return apperr.Internal(fmt.Errorf("unknown schema %q", name))
	}

	if len(data) == 0 {
		return apperr.Validation("Request body is required")
	}

	keyErrs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return apperr.New(apperr.KindValidation, "Invalid JSON body", err)
	}
	if len(keyErrs) == 0 {
		return nil
	}

	errs := make(Errors, 0, len(keyErrs))
	for _, ke := range keyErrs {
		errs = append(errs, FieldError{
			Field:   strings.TrimPrefix(ke.PropertyPath, "/"),
			Message: ke.Message,
		})
	}
	if msg == "" {
		msg = errs[0].String()
	}

	return apperr.New(apperr.KindValidation, msg, errs)
}
