package validation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
)

func newRegistry(t *testing.T) *validation.Registry {
	t.Helper()
	r, err := validation.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestNewRegistry_CompilesEmbeddedSchemas(t *testing.T) {
	r := newRegistry(t)

	names := r.Names()
	want := []string{
		validation.Course, validation.CourseApply, validation.Decision, validation.Document,
		validation.Grades, validation.Job, validation.Login, validation.Register,
		validation.StatusChange, validation.VerifyEmail,
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, n := range want {
		if !have[n] {
			t.Errorf("schema %q not registered (have %v)", n, names)
		}
	}
}

func TestRegistry_Validate(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		schema  string
		body    string
		wantErr bool
	}{
		{"register ok", validation.Register, `{"email":"a@b.co","password":"secret1","name":"Ann","role":"student"}`, false},
		{"register short password", validation.Register, `{"email":"a@b.co","password":"abc","name":"Ann","role":"student"}`, true},
		{"register bad email", validation.Register, `{"email":"nope","password":"secret1","name":"Ann","role":"student"}`, true},
		{"register bad role", validation.Register, `{"email":"a@b.co","password":"secret1","name":"Ann","role":"guest"}`, true},
		{"register missing name", validation.Register, `{"email":"a@b.co","password":"secret1","role":"student"}`, true},
		{"login ok", validation.Login, `{"email":"a@b.co","password":"x"}`, false},
		{"verify numeric code", validation.VerifyEmail, `{"email":"a@b.co","code":123456}`, false},
		{"grades ok", validation.Grades, `{"grades":[{"subject":"Maths","grade":80}]}`, false},
		{"grades out of range", validation.Grades, `{"grades":[{"subject":"Maths","grade":101}]}`, true},
		{"grades empty subject", validation.Grades, `{"grades":[{"subject":"","grade":50}]}`, true},
		{"grades string grade", validation.Grades, `{"grades":[{"subject":"Maths","grade":"80"}]}`, true},
		{"apply empty list", validation.CourseApply, `{"applications":[]}`, true},
		{"apply missing course", validation.CourseApply, `{"applications":[{"institutionId":"i1"}]}`, true},
		{"job string numbers", validation.Job, `{"title":"Dev","description":"Build","minGPA":"3.0","minExperienceYears":null}`, false},
		{"job missing title", validation.Job, `{"description":"Build"}`, true},
		{"job keywords as string", validation.Job, `{"title":"Dev","description":"Build","requirements":{"keywords":"go, sql"}}`, false},
		{"document bad type", validation.Document, `{"documentType":"selfie","fileName":"a.png"}`, true},
		{"document ok", validation.Document, `{"documentType":"certificate","fileName":"a.pdf"}`, false},
		{"course ok", validation.Course, `{"name":"BSc","faculty":"Science","requirements":{"minGPA":2.5}}`, false},
		{"decision missing", validation.Decision, `{}`, true},
		{"invalid json", validation.Login, `{"email":`, true},
		{"empty body", validation.Login, ``, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := r.Validate(ctx, tc.schema, []byte(tc.body), "")
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("kind = %v, want validation", apperr.KindOf(err))
			}
		})
	}
}

func TestRegistry_Validate_MessageAndDetails(t *testing.T) {
	r := newRegistry(t)

	err := r.Validate(context.Background(), validation.Grades,
		[]byte(`{"grades":[{"subject":"Maths","grade":-1}]}`), "Each grade must be a number between 0 and 100")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := apperr.Message(err); got != "Each grade must be a number between 0 and 100" {
		t.Fatalf("message = %q", got)
	}

	var fields validation.Errors
	if !errors.As(err, &fields) || len(fields) == 0 {
		t.Fatalf("expected field errors in chain, got %v", err)
	}
}

func TestRegistry_UnknownSchema(t *testing.T) {
	r := newRegistry(t)

	err := r.Validate(context.Background(), "missing", []byte(`{}`), "")
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("kind = %v, want internal", apperr.KindOf(err))
	}
}

func TestRegistry_Add(t *testing.T) {
	r := newRegistry(t)

	if err := r.Add("bad", []byte(`{"type":`)); err == nil {
		t.Fatal("expected compile error")
	}
	if err := r.Add("ping", []byte(`{"type":"object","required":["ping"]}`)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Validate(context.Background(), "ping", []byte(`{}`), ""); err == nil {
		t.Fatal("expected violation")
	}
}
