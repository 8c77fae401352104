package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

func TestPublicInstitutions(t *testing.T) {
	e := newTestEnv(t, "production")
	ctx := context.Background()
	pending := models.Institution{Name: "Pending", Email: "p@example.com", Status: models.OrgPending}
	if err := e.store.CreateInstitution(ctx, &pending); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Nothing approved yet: every institution is listed.
	_, body := e.do(t, http.MethodGet, "/v1/public/institutions", "", nil)
	if body["count"] != float64(1) {
		t.Fatalf("fallback count = %v", body["count"])
	}

	e.seedUser(t, models.RoleInstitution, "uni@example.com")
	_, body = e.do(t, http.MethodGet, "/v1/public/institutions", "", nil)
	data, _ := body["data"].([]any)
	if len(data) != 1 || data[0].(map[string]any)["status"] != models.OrgApproved {
		t.Fatalf("approved = %v", data)
	}

	e.store.Fail("ListInstitutions", errors.New("down"))
	status, body := e.do(t, http.MethodGet, "/v1/public/institutions", "", nil)
	if status != http.StatusInternalServerError {
		t.Fatalf("failure: %d", status)
	}
	wantError(t, body, "Failed to fetch institutions")
}

func TestPublicCourses(t *testing.T) {
	e := newTestEnv(t, "production")
	ctx := context.Background()
	uni := e.seedUser(t, models.RoleInstitution, "uni@example.com")
	inactive := models.Course{InstitutionID: uni.ID, Name: "Old", Faculty: "Arts", Status: models.CourseInactive}
	if err := e.store.CreateCourse(ctx, &inactive); err != nil {
		t.Fatalf("seed: %v", err)
	}
	path := "/v1/public/institutions/" + uni.ID + "/courses"

	_, body := e.do(t, http.MethodGet, path, "", nil)
	if body["count"] != float64(1) {
		t.Fatalf("fallback count = %v", body["count"])
	}

	active := models.Course{InstitutionID: uni.ID, Name: "New", Faculty: "Arts", Status: models.CourseActive}
	if err := e.store.CreateCourse(ctx, &active); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, body = e.do(t, http.MethodGet, path, "", nil)
	data, _ := body["data"].([]any)
	if len(data) != 1 || data[0].(map[string]any)["name"] != "New" {
		t.Fatalf("active = %v", data)
	}
}

func TestPublicStats(t *testing.T) {
	e := newTestEnv(t, "production")
	ctx := context.Background()
	e.seedUser(t, models.RoleStudent, "s@example.com")
	e.seedUser(t, models.RoleInstitution, "uni@example.com")
	_ = e.store.CreateInstitution(ctx, &models.Institution{Name: "P", Email: "p@example.com", Status: models.OrgPending})

	// Company accounts without company records still count.
	bare := models.User{Email: "bare@example.com", Name: "Bare", Role: models.RoleCompany, Status: models.UserActive}
	if err := e.store.CreateUser(ctx, &bare); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = e.store.CreateJob(ctx, &models.Job{CompanyID: bare.ID, Title: "t", Status: models.JobActive})

	status, body := e.do(t, http.MethodGet, "/v1/public/stats", "", nil)
	if status != http.StatusOK {
		t.Fatalf("stats: %d %v", status, body)
	}
	data, _ := body["data"].(map[string]any)
	want := map[string]float64{
		"students":             1,
		"institutions":         2,
		"companies":            1,
		"jobs":                 1,
		"approvedInstitutions": 1,
		"pendingInstitutions":  1,
		"approvedCompanies":    0,
		"pendingCompanies":     0,
	}
	for k, v := range want {
		if data[k] != v {
			t.Fatalf("%s = %v, want %v (data %v)", k, data[k], v, data)
		}
	}
}
