package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/internal/matching"
	"github.com/Alpho052/career-guidance-platform/internal/notify"
	"github.com/Alpho052/career-guidance-platform/internal/tasks"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const defaultJobType = "full-time"

type CompanyHandler struct {
	store     repository.Store
	binder    binder
	ranker    *matching.Ranker
	submitter tasks.Submitter
}

// NewCompanyHandler wires the company endpoints. New jobs are handed to
// submitter as tasks.TypeNotifyJobPosted.
func NewCompanyHandler(store repository.Store, schemas *validation.Registry, submitter tasks.Submitter) *CompanyHandler {
	return &CompanyHandler{
		store:     store,
		binder:    binder{schemas: schemas},
		ranker:    matching.NewRanker(store, store, store, store),
		submitter: submitter,
	}
}

type companyProfileView struct {
	models.Company
	JobsCount int `json:"jobsCount"`
}

func (h *CompanyHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := callerID(r)

	company, err := h.store.GetCompany(ctx, id)
	if err != nil {
		writeError(w, r, internal("get company", err))
		return
	}
	if company == nil {
		writeError(w, r, apperr.NotFound("Company profile not found"))
		return
	}
	jobs, err := h.store.ListJobs(ctx, repository.JobFilter{CompanyID: id})
	if err != nil {
		writeError(w, r, internal("list jobs", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"company": companyProfileView{Company: *company, JobsCount: len(jobs)},
	})
}

type companyProfileRequest struct {
	Name        *string `json:"name"`
	Industry    *string `json:"industry"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
}

func (req companyProfileRequest) apply(c *models.Company) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		c.Name = strings.TrimSpace(*req.Name)
	}
	set(&c.Industry, req.Industry)
	set(&c.Location, req.Location)
	set(&c.Description, req.Description)
	set(&c.Website, req.Website)
}

// UpdateProfile creates the company record from the user account when it
// does not exist yet.
func (h *CompanyHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req companyProfileRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	id := callerID(r)
	company, err := h.store.GetCompany(ctx, id)
	if err != nil {
		writeError(w, r, internal("get company", err))
		return
	}

	if company == nil {
		user, err := h.store.GetUser(ctx, id)
		if err != nil {
			writeError(w, r, internal("get user", err))
			return
		}
		company = &models.Company{ID: id, Status: models.OrgApproved}
		if user != nil {
			company.Email = user.Email
			company.Name = user.Name
		}
		req.apply(company)
		if err := h.store.CreateCompany(ctx, company); err != nil {
			writeError(w, r, internal("create company", err))
			return
		}
	} else {
		req.apply(company)
		if err := h.store.UpdateCompany(ctx, company); err != nil {
			writeError(w, r, internal("update company", err))
			return
		}
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Profile updated successfully"})
}

func (h *CompanyHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.ListJobs(r.Context(), repository.JobFilter{CompanyID: callerID(r)})
	if err != nil {
		writeError(w, r, internal("list jobs", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "jobs": jobs})
}

type jobRequirementsInput struct {
	Education            string `json:"education"`
	Experience           string `json:"experience"`
	Skills               string `json:"skills"`
	RequiredCertificates any    `json:"requiredCertificates"`
	Keywords             any    `json:"keywords"`
}

func (in jobRequirementsInput) normalize() models.JobRequirements {
	return models.JobRequirements{
		Education:            strings.TrimSpace(in.Education),
		Experience:           strings.TrimSpace(in.Experience),
		Skills:               strings.TrimSpace(in.Skills),
		RequiredCertificates: matching.StringSet(in.RequiredCertificates),
		Keywords:             matching.StringSet(in.Keywords),
	}
}

type jobRequest struct {
	Title               *string               `json:"title"`
	Description         *string               `json:"description"`
	Requirements        *jobRequirementsInput `json:"requirements"`
	MinGPA              any                   `json:"minGPA"`
	MinExperienceYears  any                   `json:"minExperienceYears"`
	Location            *string               `json:"location"`
	Type                *string               `json:"type"`
	Salary              any                   `json:"salary"`
	ApplicationDeadline *string               `json:"applicationDeadline"`
	Status              *string               `json:"status"`
}

// apply copies the provided fields onto j, coercing numeric and list
// requirements.
func (req jobRequest) apply(j *models.Job) {
	if req.Title != nil {
		j.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		j.Description = strings.TrimSpace(*req.Description)
	}
	if req.Requirements != nil {
		j.Requirements = req.Requirements.normalize()
	}
	if req.MinGPA != nil {
		j.MinGPA = matching.Number(req.MinGPA)
	}
	if req.MinExperienceYears != nil {
		j.MinExperienceYears = matching.Number(req.MinExperienceYears)
	}
	if req.Location != nil {
		j.Location = strings.TrimSpace(*req.Location)
	}
	if req.Type != nil && strings.TrimSpace(*req.Type) != "" {
		j.Type = strings.TrimSpace(*req.Type)
	}
	if req.Salary != nil {
		j.Salary = salaryString(req.Salary)
	}
	if req.ApplicationDeadline != nil {
		j.ApplicationDeadline = strings.TrimSpace(*req.ApplicationDeadline)
	}
}

func salaryString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return formatNumber(s)
	}
	return ""
}

// PostJob stores an active job and queues the student notifications. A
// failure to queue them does not fail the request.
func (h *CompanyHandler) PostJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := h.binder.bind(r, validation.Job, "Job title and description are required", &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	id := callerID(r)
	company, err := h.store.GetCompany(ctx, id)
	if err != nil {
		writeError(w, r, internal("get company", err))
		return
	}

	job := models.Job{
		CompanyID: id,
		Type:      defaultJobType,
		Requirements: models.JobRequirements{
			RequiredCertificates: []string{},
			Keywords:             []string{},
		},
	}
	req.apply(&job)
	job.Status = models.JobActive
	if job.Title == "" || job.Description == "" {
		writeError(w, r, apperr.Validation("Job title and description are required"))
		return
	}

	if err := h.store.CreateJob(ctx, &job); err != nil {
		writeError(w, r, internal("create job", err))
		return
	}

	companyName := ""
	if company != nil {
		companyName = company.Name
	}
	payload := notify.JobPostedPayload{JobID: job.ID, CompanyName: companyName}
	if err := h.submitter.Submit(ctx, tasks.TypeNotifyJobPosted, payload); err != nil {
		logger.Warn("job notifications not dispatched",
			zap.String("job_id", job.ID),
			zap.String("company_id", id),
			zap.Error(apperr.Dependency("notify job posted", err)),
		)
	}

	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": "Job posted successfully",
		"jobId":   job.ID,
	})
}

// ownedJob loads the job and hides jobs of other companies as missing.
func (h *CompanyHandler) ownedJob(r *http.Request) (*models.Job, error) {
	jobID := mux.Vars(r)["jobId"]
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		return nil, internal("get job", err)
	}
	if job == nil || job.CompanyID != callerID(r) {
		return nil, errJobNotFound
	}
	return job, nil
}

func (h *CompanyHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	job, err := h.ownedJob(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req.apply(job)
	if req.Status != nil {
		switch s := strings.TrimSpace(*req.Status); s {
		case models.JobActive, models.JobClosed:
			job.Status = s
		default:
			writeError(w, r, apperr.Validation(fmt.Sprintf("Job status must be %s or %s", models.JobActive, models.JobClosed)))
			return
		}
	}
	if job.Title == "" || job.Description == "" {
		writeError(w, r, apperr.Validation("Job title and description are required"))
		return
	}

	if err := h.store.UpdateJob(r.Context(), job); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, errJobNotFound)
			return
		}
		writeError(w, r, internal("update job", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Job updated successfully"})
}

// GetJobApplicants returns the qualifying applicants ordered by score.
func (h *CompanyHandler) GetJobApplicants(w http.ResponseWriter, r *http.Request) {
	job, err := h.ownedJob(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ranked, err := h.ranker.Rank(r.Context(), job)
	if err != nil {
		writeError(w, r, internal("rank applicants", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"applicants": ranked,
		"totalCount": len(ranked),
	})
}
