package api_test

import (
	"net/http"
	"testing"
)

func TestSystemEndpoints(t *testing.T) {
	e := newTestEnv(t, "production")

	status, body := e.do(t, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", status)
	}
	if body["status"] != "ok" || body["service"] != "career-guidance-platform" {
		t.Fatalf("health: unexpected body %v", body)
	}

	status, body = e.do(t, http.MethodGet, "/version", "", nil)
	if status != http.StatusOK {
		t.Fatalf("version: expected 200, got %d", status)
	}
	if body["version"] != "1.2.3" || body["buildTime"] != "today" {
		t.Fatalf("version: unexpected body %v", body)
	}
}
