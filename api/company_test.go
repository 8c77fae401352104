package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Alpho052/career-guidance-platform/internal/notify"
	"github.com/Alpho052/career-guidance-platform/internal/tasks"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

func TestCompanyProfile(t *testing.T) {
	e := newTestEnv(t, "production")
	co := e.seedUser(t, models.RoleCompany, "co@example.com")
	tok := tokenFor(t, co, time.Hour)

	status, body := e.do(t, http.MethodPut, "/v1/companies/profile", tok, map[string]any{"industry": "Mining", "name": "  "})
	if status != http.StatusOK {
		t.Fatalf("update: %d %v", status, body)
	}
	status, body = e.do(t, http.MethodGet, "/v1/companies/profile", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("get: %d %v", status, body)
	}
	c, _ := body["company"].(map[string]any)
	if c["industry"] != "Mining" || c["name"] != co.Name || c["jobsCount"] != float64(0) {
		t.Fatalf("company = %v", c)
	}

	// A company user without a company record gets one on first update.
	bare := models.User{Email: "bare@example.com", Name: "Bare", Role: models.RoleCompany, Status: models.UserActive}
	if err := e.store.CreateUser(context.Background(), &bare); err != nil {
		t.Fatalf("create user: %v", err)
	}
	bareTok := tokenFor(t, bare, time.Hour)
	status, _ = e.do(t, http.MethodGet, "/v1/companies/profile", bareTok, nil)
	if status != http.StatusNotFound {
		t.Fatalf("missing profile: %d", status)
	}
	status, _ = e.do(t, http.MethodPut, "/v1/companies/profile", bareTok, map[string]any{"website": "https://bare.example.com"})
	if status != http.StatusOK {
		t.Fatalf("create on update: %d", status)
	}
	created, _ := e.store.GetCompany(context.Background(), bare.ID)
	if created == nil || created.Name != "Bare" || created.Website != "https://bare.example.com" {
		t.Fatalf("created company = %+v", created)
	}
}

func TestPostJob(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		submitErr  error
		wantStatus int
		wantError  string
		check      func(t *testing.T, e *testEnv, co models.User, body map[string]any)
	}{
		{
			name:       "MissingTitle",
			body:       map[string]any{"description": "d"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Job title and description are required",
		},
		{
			name:       "BlankTitle",
			body:       map[string]any{"title": "   ", "description": "d"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Job title and description are required",
		},
		{
			name: "Success",
			body: map[string]any{
				"title":        "Engineer",
				"description":  "Build things",
				"minGPA":       "3.0",
				"salary":       25000,
				"requirements": map[string]any{"keywords": "go, sql", "requiredCertificates": []string{"AWS"}},
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, e *testEnv, co models.User, body map[string]any) {
				id, _ := body["jobId"].(string)
				job, _ := e.store.GetJob(context.Background(), id)
				if job == nil {
					t.Fatalf("job not stored")
				}
				if job.Status != models.JobActive || job.Type != "full-time" || job.MinGPA != 3 || job.Salary != "25000" {
					t.Fatalf("job = %+v", job)
				}
				if len(job.Requirements.Keywords) != 2 || job.Requirements.Keywords[1] != "sql" {
					t.Fatalf("keywords = %v", job.Requirements.Keywords)
				}
				if len(e.submitter.calls) != 1 {
					t.Fatalf("submissions = %d", len(e.submitter.calls))
				}
				call := e.submitter.calls[0]
				payload, ok := call.payload.(notify.JobPostedPayload)
				if call.typ != tasks.TypeNotifyJobPosted || !ok || payload.JobID != id || payload.CompanyName != co.Name {
					t.Fatalf("submission = %+v", call)
				}
			},
		},
		{
			name:       "NotificationFailureDoesNotFail",
			body:       map[string]any{"title": "Engineer", "description": "Build things"},
			submitErr:  errors.New("queue full"),
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, "production")
			e.submitter.err = tt.submitErr
			co := e.seedUser(t, models.RoleCompany, "co@example.com")

			status, body := e.do(t, http.MethodPost, "/v1/companies/jobs", tokenFor(t, co, time.Hour), tt.body)
			if status != tt.wantStatus {
				t.Fatalf("want %d got %d: %v", tt.wantStatus, status, body)
			}
			if tt.wantError != "" {
				wantError(t, body, tt.wantError)
				if len(e.submitter.calls) != 0 {
					t.Fatalf("rejected job must not notify")
				}
			}
			if tt.check != nil {
				tt.check(t, e, co, body)
			}
		})
	}
}

func TestUpdateJob(t *testing.T) {
	e := newTestEnv(t, "production")
	co := e.seedUser(t, models.RoleCompany, "co@example.com")
	rival := e.seedUser(t, models.RoleCompany, "rival@example.com")
	job := models.Job{CompanyID: co.ID, Title: "Engineer", Description: "d", Status: models.JobActive}
	if err := e.store.CreateJob(context.Background(), &job); err != nil {
		t.Fatalf("seed: %v", err)
	}
	path := "/v1/companies/jobs/" + job.ID

	status, body := e.do(t, http.MethodPut, path, tokenFor(t, rival, time.Hour), map[string]any{"title": "Mine"})
	if status != http.StatusNotFound {
		t.Fatalf("rival update: %d", status)
	}

	status, body = e.do(t, http.MethodPut, path, tokenFor(t, co, time.Hour), map[string]any{"status": "archived"})
	if status != http.StatusBadRequest {
		t.Fatalf("bad status: %d", status)
	}
	wantError(t, body, "Job status must be active or closed")

	status, body = e.do(t, http.MethodPut, path, tokenFor(t, co, time.Hour), map[string]any{"status": "closed", "location": "Maseru"})
	if status != http.StatusOK {
		t.Fatalf("update: %d %v", status, body)
	}
	stored, _ := e.store.GetJob(context.Background(), job.ID)
	if stored.Status != models.JobClosed || stored.Location != "Maseru" || stored.Title != "Engineer" {
		t.Fatalf("stored = %+v", stored)
	}

	_, body = e.do(t, http.MethodGet, "/v1/companies/jobs", tokenFor(t, rival, time.Hour), nil)
	if jobs, _ := body["jobs"].([]any); len(jobs) != 0 {
		t.Fatalf("rival sees jobs: %v", jobs)
	}
}

func TestGetJobApplicants(t *testing.T) {
	e := newTestEnv(t, "production")
	ctx := context.Background()
	co := e.seedUser(t, models.RoleCompany, "co@example.com")
	job := models.Job{CompanyID: co.ID, Title: "Engineer", Description: "d", MinGPA: 2.5, Status: models.JobActive}
	if err := e.store.CreateJob(ctx, &job); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	apply := func(email string, grade float64, years float64) models.User {
		u := e.seedUser(t, models.RoleStudent, email)
		st, _ := e.store.GetStudent(ctx, u.ID)
		st.Experience = []models.Experience{{Role: "Dev", Years: years}}
		if err := e.store.UpdateStudent(ctx, st); err != nil {
			t.Fatalf("update student: %v", err)
		}
		g := []models.Grade{{Subject: "Maths", Grade: grade}}
		if err := e.store.ReplaceGrades(ctx, u.ID, g, grade/100*4); err != nil {
			t.Fatalf("grades: %v", err)
		}
		if err := e.store.CreateJobApplication(ctx, &models.JobApplication{StudentID: u.ID, JobID: job.ID, Status: models.JobApplicationApplied}); err != nil {
			t.Fatalf("apply: %v", err)
		}
		return u
	}
	weak := apply("weak@example.com", 50, 0)
	good := apply("good@example.com", 75, 0)
	best := apply("best@example.com", 90, 3)

	status, body := e.do(t, http.MethodGet, "/v1/companies/jobs/"+job.ID+"/applicants", tokenFor(t, co, time.Hour), nil)
	if status != http.StatusOK {
		t.Fatalf("applicants: %d %v", status, body)
	}
	if body["totalCount"] != float64(2) {
		t.Fatalf("totalCount = %v", body["totalCount"])
	}
	list, _ := body["applicants"].([]any)
	order := make([]string, 0, len(list))
	for _, a := range list {
		order = append(order, a.(map[string]any)["studentId"].(string))
	}
	if len(order) != 2 || order[0] != best.ID || order[1] != good.ID {
		t.Fatalf("order = %v, weak = %s", order, weak.ID)
	}
	first := list[0].(map[string]any)
	if first["readyForInterview"] != true || first["evaluation"].(map[string]any)["gpa"] != 3.6 {
		t.Fatalf("first applicant = %v", first)
	}

	status, _ = e.do(t, http.MethodGet, "/v1/companies/jobs/missing/applicants", tokenFor(t, co, time.Hour), nil)
	if status != http.StatusNotFound {
		t.Fatalf("missing job: %d", status)
	}
}
