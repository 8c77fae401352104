package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
)

func TestStatusAndMessage(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name       string
		err        error
		wantKind   apperr.Kind
		wantStatus int
		wantMsg    string
	}{
		{name: "validation", err: apperr.Validation("Job title and description are required"), wantKind: apperr.KindValidation, wantStatus: http.StatusBadRequest, wantMsg: "Job title and description are required"},
		{name: "not found", err: apperr.NotFound("Job not found"), wantKind: apperr.KindNotFound, wantStatus: http.StatusNotFound, wantMsg: "Job not found"},
		{name: "conflict", err: apperr.Conflict("Already applied"), wantKind: apperr.KindConflict, wantStatus: http.StatusBadRequest, wantMsg: "Already applied"},
		{name: "unauthorized", err: apperr.Unauthorized("Unauthorized to delete this document"), wantKind: apperr.KindUnauthorized, wantStatus: http.StatusForbidden, wantMsg: "Unauthorized to delete this document"},
		{name: "unauthenticated", err: apperr.Unauthenticated("Invalid token."), wantKind: apperr.KindUnauthenticated, wantStatus: http.StatusUnauthorized, wantMsg: "Invalid token."},
		{name: "dependency", err: apperr.Dependency("send email", cause), wantKind: apperr.KindDependency, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "internal", err: apperr.Internal(cause), wantKind: apperr.KindInternal, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "internal with message", err: apperr.New(apperr.KindInternal, "Failed to fetch courses", cause), wantKind: apperr.KindInternal, wantStatus: http.StatusInternalServerError, wantMsg: "Failed to fetch courses"},
		{name: "plain error", err: cause, wantKind: apperr.KindInternal, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "wrapped", err: fmt.Errorf("apply: %w", apperr.Conflict("dup")), wantKind: apperr.KindConflict, wantStatus: http.StatusBadRequest, wantMsg: "dup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(tt.err); got != tt.wantKind {
				t.Fatalf("KindOf: want %v got %v", tt.wantKind, got)
			}
			if got := apperr.Status(tt.err); got != tt.wantStatus {
				t.Fatalf("Status: want %d got %d", tt.wantStatus, got)
			}
			if got := apperr.Message(tt.err); got != tt.wantMsg {
				t.Fatalf("Message: want %q got %q", tt.wantMsg, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := apperr.Dependency("emit notification", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if err.Error() != "emit notification: boom" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}
