package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

func TestInstitutionProfileAndSettings(t *testing.T) {
	e := newTestEnv(t, "production")
	inst := e.seedUser(t, models.RoleInstitution, "uni@example.com")
	tok := tokenFor(t, inst, time.Hour)

	status, body := e.do(t, http.MethodPut, "/v1/institutions/profile", tok, map[string]any{"location": "Roma", "email": "new@example.com"})
	if status != http.StatusOK {
		t.Fatalf("update: %d %v", status, body)
	}
	status, body = e.do(t, http.MethodPut, "/v1/institutions/admissions/settings", tok, map[string]any{
		"admissionsOpen":    true,
		"admissionsMessage": "Apply now",
		"nextIntakeDate":    "2027-01-15",
	})
	if status != http.StatusOK {
		t.Fatalf("settings: %d %v", status, body)
	}
	// A non-boolean flag leaves the current value alone.
	status, _ = e.do(t, http.MethodPut, "/v1/institutions/admissions/settings", tok, map[string]any{"admissionsOpen": "no"})
	if status != http.StatusOK {
		t.Fatalf("settings: %d", status)
	}

	status, body = e.do(t, http.MethodGet, "/v1/institutions/profile", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("get: %d %v", status, body)
	}
	got, _ := body["institution"].(map[string]any)
	if got["location"] != "Roma" || got["email"] != "uni@example.com" || got["admissionsOpen"] != true ||
		got["admissionsMessage"] != "Apply now" || got["coursesCount"] != float64(0) {
		t.Fatalf("institution = %v", got)
	}
}

func TestInstitutionFaculties(t *testing.T) {
	e := newTestEnv(t, "production")
	inst := e.seedUser(t, models.RoleInstitution, "uni@example.com")
	rival := e.seedUser(t, models.RoleInstitution, "rival@example.com")
	tok := tokenFor(t, inst, time.Hour)

	status, body := e.do(t, http.MethodPost, "/v1/institutions/faculties", tok, map[string]any{"description": "x"})
	if status != http.StatusBadRequest {
		t.Fatalf("missing name: %d", status)
	}
	wantError(t, body, "Faculty name is required")

	status, body = e.do(t, http.MethodPost, "/v1/institutions/faculties", tok, map[string]any{"name": "Science"})
	if status != http.StatusCreated {
		t.Fatalf("add: %d %v", status, body)
	}
	id, _ := body["facultyId"].(string)
	path := "/v1/institutions/faculties/" + id

	status, _ = e.do(t, http.MethodPut, path, tokenFor(t, rival, time.Hour), map[string]any{"name": "Stolen"})
	if status != http.StatusNotFound {
		t.Fatalf("rival update: %d", status)
	}
	status, _ = e.do(t, http.MethodPut, path, tok, map[string]any{"name": "Natural Science"})
	if status != http.StatusOK {
		t.Fatalf("update: %d", status)
	}
	_, body = e.do(t, http.MethodGet, "/v1/institutions/faculties", tok, nil)
	list, _ := body["faculties"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["name"] != "Natural Science" {
		t.Fatalf("faculties = %v", list)
	}
	status, _ = e.do(t, http.MethodDelete, path, tok, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: %d", status)
	}
	status, _ = e.do(t, http.MethodDelete, path, tok, nil)
	if status != http.StatusNotFound {
		t.Fatalf("second delete: %d", status)
	}
}

func TestInstitutionCourses(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantError  string
		check      func(t *testing.T, c *models.Course)
	}{
		{
			name:       "MissingFaculty",
			body:       map[string]any{"name": "BSc"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Course name and faculty are required",
		},
		{
			name:       "BadStatus",
			body:       map[string]any{"name": "BSc", "faculty": "Science", "status": "draft"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Course status must be active or inactive",
		},
		{
			name: "CoercesRequirements",
			body: map[string]any{
				"name":         "BSc",
				"faculty":      "Science",
				"duration":     4,
				"capacity":     "120",
				"requirements": map[string]any{"minGPA": "2.5", "requiredSubjects": "Maths, Physics", "minSubjectGrade": 60},
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, c *models.Course) {
				if c.Duration != "4" || c.Capacity != 120 || c.Status != models.CourseActive {
					t.Fatalf("course = %+v", c)
				}
				r := c.Requirements
				if r.MinGPA != 2.5 || r.MinSubjectGrade != 60 || len(r.RequiredSubjects) != 2 || r.RequiredSubjects[1] != "Physics" {
					t.Fatalf("requirements = %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, "production")
			inst := e.seedUser(t, models.RoleInstitution, "uni@example.com")
			status, body := e.do(t, http.MethodPost, "/v1/institutions/courses", tokenFor(t, inst, time.Hour), tt.body)
			if status != tt.wantStatus {
				t.Fatalf("want %d got %d: %v", tt.wantStatus, status, body)
			}
			if tt.wantError != "" {
				wantError(t, body, tt.wantError)
				return
			}
			id, _ := body["courseId"].(string)
			c, _ := e.store.GetCourse(context.Background(), id)
			if c == nil || c.InstitutionID != inst.ID {
				t.Fatalf("stored course = %+v", c)
			}
			tt.check(t, c)
		})
	}
}

func TestInstitutionCourseOwnership(t *testing.T) {
	e := newTestEnv(t, "production")
	inst := e.seedUser(t, models.RoleInstitution, "uni@example.com")
	rival := e.seedUser(t, models.RoleInstitution, "rival@example.com")
	c := models.Course{InstitutionID: inst.ID, Name: "BSc", Faculty: "Science", Status: models.CourseActive}
	if err := e.store.CreateCourse(context.Background(), &c); err != nil {
		t.Fatalf("seed: %v", err)
	}
	path := "/v1/institutions/courses/" + c.ID

	status, _ := e.do(t, http.MethodPut, path, tokenFor(t, rival, time.Hour), map[string]any{"status": "inactive"})
	if status != http.StatusNotFound {
		t.Fatalf("rival update: %d", status)
	}
	status, _ = e.do(t, http.MethodDelete, path, tokenFor(t, rival, time.Hour), nil)
	if status != http.StatusNotFound {
		t.Fatalf("rival delete: %d", status)
	}

	status, body := e.do(t, http.MethodPut, path, tokenFor(t, inst, time.Hour), map[string]any{"status": "inactive", "capacity": 30})
	if status != http.StatusOK {
		t.Fatalf("update: %d %v", status, body)
	}
	stored, _ := e.store.GetCourse(context.Background(), c.ID)
	if stored.Status != models.CourseInactive || stored.Capacity != 30 || stored.Name != "BSc" {
		t.Fatalf("stored = %+v", stored)
	}

	status, _ = e.do(t, http.MethodDelete, path, tokenFor(t, inst, time.Hour), nil)
	if status != http.StatusOK {
		t.Fatalf("delete: %d", status)
	}
	_, body = e.do(t, http.MethodGet, "/v1/institutions/courses", tokenFor(t, inst, time.Hour), nil)
	if list, _ := body["courses"].([]any); len(list) != 0 {
		t.Fatalf("courses = %v", list)
	}
}

func TestInstitutionApplicationStatus(t *testing.T) {
	e := newTestEnv(t, "production")
	ctx := context.Background()
	uniA := e.seedUser(t, models.RoleInstitution, "a@example.com")
	uniB := e.seedUser(t, models.RoleInstitution, "b@example.com")
	student := e.seedUser(t, models.RoleStudent, "s@example.com")
	if err := e.store.ReplaceGrades(ctx, student.ID, []models.Grade{{Subject: "Maths", Grade: 80}}, 3.2); err != nil {
		t.Fatalf("grades: %v", err)
	}

	course := func(inst models.User) models.Course {
		c := models.Course{InstitutionID: inst.ID, Name: "BSc", Faculty: "Science", Status: models.CourseActive}
		if err := e.store.CreateCourse(ctx, &c); err != nil {
			t.Fatalf("course: %v", err)
		}
		return c
	}
	ca, cb := course(uniA), course(uniB)
	apps := []models.CourseApplication{
		{StudentID: student.ID, InstitutionID: uniA.ID, CourseID: ca.ID, Status: models.StatusPending},
		{StudentID: student.ID, InstitutionID: uniB.ID, CourseID: cb.ID, Status: models.StatusPending},
	}
	if err := e.store.CreateCourseApplications(ctx, apps); err != nil {
		t.Fatalf("apps: %v", err)
	}
	tokA, tokB := tokenFor(t, uniA, time.Hour), tokenFor(t, uniB, time.Hour)
	pathA := "/v1/institutions/applications/" + apps[0].ID + "/status"
	pathB := "/v1/institutions/applications/" + apps[1].ID + "/status"

	_, body := e.do(t, http.MethodGet, "/v1/institutions/applications", tokA, nil)
	list, _ := body["applications"].([]any)
	if len(list) != 1 {
		t.Fatalf("applications = %v", body["applications"])
	}
	st := list[0].(map[string]any)["student"].(map[string]any)
	if st["gpa"] != 3.2 || len(st["grades"].([]any)) != 1 {
		t.Fatalf("applicant = %v", st)
	}

	tests := []struct {
		name       string
		path       string
		token      string
		status     string
		wantStatus int
		wantError  string
	}{
		{name: "InvalidStatus", path: pathA, token: tokA, status: "maybe", wantStatus: http.StatusBadRequest, wantError: "Invalid status. Must be: admitted, rejected, pending, or waiting-list"},
		{name: "OtherInstitution", path: pathA, token: tokB, status: "rejected", wantStatus: http.StatusNotFound, wantError: "Application not found"},
		{name: "AdmitA", path: pathA, token: tokA, status: "admitted", wantStatus: http.StatusOK},
		{name: "AdmitBConflicts", path: pathB, token: tokB, status: "admitted", wantStatus: http.StatusBadRequest, wantError: "This student has already been admitted to another programme. They must confirm or decline that offer before you can admit them here."},
		{name: "WaitlistB", path: pathB, token: tokB, status: "waiting-list", wantStatus: http.StatusOK},
		{name: "ReleaseA", path: pathA, token: tokA, status: "rejected", wantStatus: http.StatusOK},
		{name: "AdmitBAfterRelease", path: pathB, token: tokB, status: "admitted", wantStatus: http.StatusOK},
	}
	// Steps build on each other.
	for _, tt := range tests {
		status, body := e.do(t, http.MethodPut, tt.path, tt.token, map[string]any{"status": tt.status})
		if status != tt.wantStatus {
			t.Fatalf("%s: want %d got %d: %v", tt.name, tt.wantStatus, status, body)
		}
		if tt.wantError != "" {
			wantError(t, body, tt.wantError)
			continue
		}
		app, _ := body["application"].(map[string]any)
		if app["status"] != tt.status {
			t.Fatalf("%s: application = %v", tt.name, app)
		}
	}

	_, body = e.do(t, http.MethodGet, "/v1/institutions/applications?status=admitted", tokB, nil)
	if list, _ := body["applications"].([]any); len(list) != 1 {
		t.Fatalf("admitted filter = %v", body["applications"])
	}
}
