package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Alpho052/career-guidance-platform/internal/admissions"
	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/internal/matching"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const (
	maxApplicationsPerInstitution = 2
	notificationPageSize          = 50
)

var (
	errStudentNotFound = apperr.NotFound("Student profile not found")
	errJobNotFound     = apperr.NotFound("Job not found")
	errCourseNotFound  = apperr.NotFound("Course not found")
)

type StudentHandler struct {
	store    repository.Store
	binder   binder
	guard    *admissions.Guard
	profiles *matching.Aggregator
	now      func() time.Time
}

func NewStudentHandler(store repository.Store, schemas *validation.Registry, guard *admissions.Guard) *StudentHandler {
	return &StudentHandler{
		store:    store,
		binder:   binder{schemas: schemas},
		guard:    guard,
		profiles: matching.NewAggregator(store),
		now:      time.Now,
	}
}

// callerID returns the authenticated user's id.
func callerID(r *http.Request) string {
	id, _ := IdentityFrom(r.Context())
	return id.UserID
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type studentProfileView struct {
	models.Student
	GPA              float64 `json:"gpa"`
	ApplicationCount int     `json:"applicationCount"`
}

func (h *StudentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := callerID(r)

	student, err := h.store.GetStudent(ctx, id)
	if err != nil {
		writeError(w, r, internal("get student", err))
		return
	}
	if student == nil {
		writeError(w, r, errStudentNotFound)
		return
	}
	grades, err := h.store.ListGrades(ctx, id)
	if err != nil {
		writeError(w, r, internal("list grades", err))
		return
	}
	apps, err := h.store.ListCourseApplications(ctx, repository.CourseApplicationFilter{StudentID: id})
	if err != nil {
		writeError(w, r, internal("list applications", err))
		return
	}

	gpa := student.GPA
	if len(grades) > 0 {
		gpa = matching.GPAFromGrades(grades)
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"student": studentProfileView{
			Student:          *student,
			GPA:              matching.Round2(gpa),
			ApplicationCount: len(apps),
		},
		"applications": apps,
		"grades":       grades,
	})
}

type experienceInput struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Years       any    `json:"years"`
	Description string `json:"description"`
}

// studentProfileRequest lists the updatable fields; email and role are
// ignored.
type studentProfileRequest struct {
	Name       *string            `json:"name"`
	Phone      *string            `json:"phone"`
	Skills     *string            `json:"skills"`
	Experience *[]experienceInput `json:"experience"`
}

func (h *StudentHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req studentProfileRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	student, err := h.store.GetStudent(ctx, callerID(r))
	if err != nil {
		writeError(w, r, internal("get student", err))
		return
	}
	if student == nil {
		writeError(w, r, errStudentNotFound)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		student.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Skills != nil {
		student.Skills = strings.TrimSpace(*req.Skills)
	}
	if req.Experience != nil {
		student.Experience = make([]models.Experience, 0, len(*req.Experience))
		for _, e := range *req.Experience {
			student.Experience = append(student.Experience, models.Experience{
				Company:     strings.TrimSpace(e.Company),
				Role:        strings.TrimSpace(e.Role),
				Years:       matching.Number(e.Years),
				Description: strings.TrimSpace(e.Description),
			})
		}
	}

	if err := h.store.UpdateStudent(ctx, student); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, errStudentNotFound)
			return
		}
		writeError(w, r, internal("update student", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Profile updated successfully"})
}

type gradesRequest struct {
	Grades []struct {
		Subject string  `json:"subject"`
		Grade   float64 `json:"grade"`
	} `json:"grades"`
}

func (h *StudentHandler) UpdateGrades(w http.ResponseWriter, r *http.Request) {
	data, err := h.binder.read(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var probe struct {
		Grades any `json:"grades"`
	}
	if err := decode(data, &probe); err != nil {
		writeError(w, r, err)
		return
	}
	if _, ok := probe.Grades.([]any); !ok {
		writeError(w, r, apperr.Validation("Grades must be an array"))
		return
	}
	if err := h.binder.check(r, validation.Grades, data, "Each grade must have subject (string) and grade (number between 0-100)"); err != nil {
		writeError(w, r, err)
		return
	}
	var req gradesRequest
	if err := decode(data, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := callerID(r)
	grades := make([]models.Grade, 0, len(req.Grades))
	for _, g := range req.Grades {
		grades = append(grades, models.Grade{StudentID: id, Subject: strings.TrimSpace(g.Subject), Grade: g.Grade})
	}
	gpa := matching.GPAFromGrades(grades)

	if err := h.store.ReplaceGrades(r.Context(), id, grades, gpa); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, errStudentNotFound)
			return
		}
		writeError(w, r, internal("replace grades", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "Grades updated successfully",
		"gpa":     matching.Round2(gpa),
	})
}

type courseApplyRequest struct {
	Applications []struct {
		InstitutionID string `json:"institutionId"`
		CourseID      string `json:"courseId"`
	} `json:"applications"`
}

// ApplyForCourses validates every requested application before any is
// stored; the batch is written all or nothing.
func (h *StudentHandler) ApplyForCourses(w http.ResponseWriter, r *http.Request) {
	data, err := h.binder.read(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var probe struct {
		Applications any `json:"applications"`
	}
	if err := decode(data, &probe); err != nil {
		writeError(w, r, err)
		return
	}
	if list, ok := probe.Applications.([]any); !ok || len(list) == 0 {
		writeError(w, r, apperr.Validation("Applications array is required"))
		return
	}
	if err := h.binder.check(r, validation.CourseApply, data, "Each application must have institutionId and courseId"); err != nil {
		writeError(w, r, err)
		return
	}
	var req courseApplyRequest
	if err := decode(data, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	id := callerID(r)
	existing, err := h.store.ListCourseApplications(ctx, repository.CourseApplicationFilter{StudentID: id})
	if err != nil {
		writeError(w, r, internal("list applications", err))
		return
	}
	grades, err := h.store.ListGrades(ctx, id)
	if err != nil {
		writeError(w, r, internal("list grades", err))
		return
	}
	gpa := matching.GPAFromGrades(grades)

	perInstitution := map[string]int{}
	applied := map[string]bool{}
	for _, a := range existing {
		perInstitution[a.InstitutionID]++
		applied[a.InstitutionID+"/"+a.CourseID] = true
	}
	requested := map[string]int{}
	for _, a := range req.Applications {
		requested[a.InstitutionID]++
	}

	batch := make([]models.CourseApplication, 0, len(req.Applications))
	for _, a := range req.Applications {
		current := perInstitution[a.InstitutionID]
		if current+requested[a.InstitutionID] > maxApplicationsPerInstitution {
			writeError(w, r, apperr.Validation(fmt.Sprintf(
				"Cannot apply to more than %d courses per institution. You have %d existing applications for this institution.",
				maxApplicationsPerInstitution, current)))
			return
		}
		key := a.InstitutionID + "/" + a.CourseID
		if applied[key] {
			writeError(w, r, apperr.Conflict("You have already applied to this course"))
			return
		}
		applied[key] = true

		course, err := h.store.GetCourse(ctx, a.CourseID)
		if err != nil {
			writeError(w, r, internal("get course", err))
			return
		}
		if course == nil || course.InstitutionID != a.InstitutionID {
			writeError(w, r, errCourseNotFound)
			return
		}
		if err := courseEligibility(course, gpa, grades); err != nil {
			writeError(w, r, err)
			return
		}

		batch = append(batch, models.CourseApplication{
			StudentID:     id,
			InstitutionID: a.InstitutionID,
			CourseID:      a.CourseID,
			Status:        models.StatusPending,
		})
	}

	if err := h.store.CreateCourseApplications(ctx, batch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, r, apperr.Conflict("You have already applied to this course"))
			return
		}
		writeError(w, r, internal("create applications", err))
		return
	}

	ids := make([]string, 0, len(batch))
	for _, a := range batch {
		ids = append(ids, a.ID)
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":        true,
		"message":        "Applications submitted successfully",
		"applicationIds": ids,
	})
}

// courseEligibility turns a failed course evaluation into the error shown
// to the student.
func courseEligibility(course *models.Course, gpa float64, grades []models.Grade) error {
	ev := matching.EvaluateCourse(course.Requirements, gpa, grades)
	if !ev.MeetsGPA {
		return apperr.Validation(fmt.Sprintf("Minimum GPA of %s required for %s", formatNumber(course.Requirements.MinGPA), course.Name))
	}
	if len(ev.Subjects) > 0 {
		s := ev.Subjects[0]
		return apperr.Validation(fmt.Sprintf("You do not meet subject requirements for %s. Required: %s >= %s",
			course.Name, s.Subject, formatNumber(s.MinGrade)))
	}
	return nil
}

type courseApplicationView struct {
	models.CourseApplication
	Course      *models.Course      `json:"course,omitempty"`
	Institution *models.Institution `json:"institution,omitempty"`
}

func (h *StudentHandler) GetApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.store.ListCourseApplications(ctx, repository.CourseApplicationFilter{StudentID: callerID(r)})
	if err != nil {
		writeError(w, r, internal("list applications", err))
		return
	}

	courses := map[string]*models.Course{}
	institutions := map[string]*models.Institution{}
	out := make([]courseApplicationView, 0, len(apps))
	for _, a := range apps {
		course, ok := courses[a.CourseID]
		if !ok {
			if course, err = h.store.GetCourse(ctx, a.CourseID); err != nil {
				writeError(w, r, internal("get course", err))
				return
			}
			courses[a.CourseID] = course
		}
		inst, ok := institutions[a.InstitutionID]
		if !ok {
			if inst, err = h.store.GetInstitution(ctx, a.InstitutionID); err != nil {
				writeError(w, r, internal("get institution", err))
				return
			}
			institutions[a.InstitutionID] = inst
		}
		out = append(out, courseApplicationView{CourseApplication: a, Course: course, Institution: inst})
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "applications": out})
}

func (h *StudentHandler) DecideOnOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
	}
	if err := h.binder.bind(r, validation.Decision, "Decision must be accept or decline", &req); err != nil {
		writeError(w, r, err)
		return
	}

	status, err := h.guard.Decide(r.Context(), callerID(r), mux.Vars(r)["applicationId"], req.Decision)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": fmt.Sprintf("Offer %s.", status),
		"status":  status,
	})
}

// GetInstitutionCourses lists the institution's courses the student meets
// the requirements of.
func (h *StudentHandler) GetInstitutionCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	institutionID := mux.Vars(r)["institutionId"]
	if strings.TrimSpace(institutionID) == "" {
		writeError(w, r, apperr.Validation("Institution ID is required"))
		return
	}

	courses, err := h.store.ListCourses(ctx, repository.CourseFilter{InstitutionID: institutionID})
	if err != nil {
		writeError(w, r, internal("list courses", err))
		return
	}
	grades, err := h.store.ListGrades(ctx, callerID(r))
	if err != nil {
		writeError(w, r, internal("list grades", err))
		return
	}
	gpa := matching.GPAFromGrades(grades)

	eligible := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if matching.EvaluateCourse(c.Requirements, gpa, grades).Qualifies {
			eligible = append(eligible, c)
		}
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "data": eligible, "count": len(eligible)})
}

type jobView struct {
	models.Job
	Company *models.Company `json:"company,omitempty"`
}

func (h *StudentHandler) profile(r *http.Request) (matching.Profile, error) {
	student, err := h.store.GetStudent(r.Context(), callerID(r))
	if err != nil {
		return matching.Profile{}, internal("get student", err)
	}
	p, err := h.profiles.Profile(r.Context(), student)
	if err != nil {
		return matching.Profile{}, internal("build profile", err)
	}
	return p, nil
}

// GetAvailableJobs lists active jobs the student fully qualifies for.
func (h *StudentHandler) GetAvailableJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.profile(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jobs, err := h.store.ListJobs(ctx, repository.JobFilter{Status: models.JobActive})
	if err != nil {
		writeError(w, r, internal("list jobs", err))
		return
	}

	companies := map[string]*models.Company{}
	out := make([]jobView, 0, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		if !matching.EvaluateJob(job, p).Qualifies {
			continue
		}
		company, ok := companies[job.CompanyID]
		if !ok {
			if company, err = h.store.GetCompany(ctx, job.CompanyID); err != nil {
				writeError(w, r, internal("get company", err))
				return
			}
			companies[job.CompanyID] = company
		}
		out = append(out, jobView{Job: *job, Company: company})
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "jobs": out, "totalCount": len(out)})
}

func (h *StudentHandler) ApplyForJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := callerID(r)
	jobID := mux.Vars(r)["jobId"]

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		writeError(w, r, internal("get job", err))
		return
	}
	if job == nil {
		writeError(w, r, errJobNotFound)
		return
	}

	existing, err := h.store.ListJobApplications(ctx, repository.JobApplicationFilter{StudentID: id, JobID: jobID})
	if err != nil {
		writeError(w, r, internal("list job applications", err))
		return
	}
	if len(existing) > 0 {
		writeError(w, r, apperr.Conflict("Already applied to this job"))
		return
	}

	p, err := h.profile(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !matching.EvaluateJob(job, p).Qualifies {
		writeError(w, r, apperr.Validation("You do not meet all of the requirements for this job."))
		return
	}

	app := models.JobApplication{StudentID: id, JobID: jobID, Status: models.JobApplicationApplied}
	if err := h.store.CreateJobApplication(ctx, &app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, r, apperr.Conflict("Already applied to this job"))
			return
		}
		writeError(w, r, internal("create job application", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Applied to job successfully", "applicationId": app.ID})
}

func (h *StudentHandler) SaveJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := mux.Vars(r)["jobId"]

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		writeError(w, r, internal("get job", err))
		return
	}
	if job == nil {
		writeError(w, r, errJobNotFound)
		return
	}

	created, err := h.store.SaveJob(ctx, &models.SavedJob{StudentID: callerID(r), JobID: jobID})
	if err != nil {
		writeError(w, r, internal("save job", err))
		return
	}
	msg := "Job saved"
	if !created {
		msg = "Already saved"
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": msg})
}

func (h *StudentHandler) GetAppliedJobIDs(w http.ResponseWriter, r *http.Request) {
	apps, err := h.store.ListJobApplications(r.Context(), repository.JobApplicationFilter{StudentID: callerID(r)})
	if err != nil {
		writeError(w, r, internal("list job applications", err))
		return
	}
	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.JobID)
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "jobIds": ids})
}

func (h *StudentHandler) GetSavedJobIDs(w http.ResponseWriter, r *http.Request) {
	saved, err := h.store.ListSavedJobs(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, internal("list saved jobs", err))
		return
	}
	ids := make([]string, 0, len(saved))
	for _, s := range saved {
		ids = append(ids, s.JobID)
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "jobIds": ids})
}

type documentRequest struct {
	DocumentType models.DocumentType `json:"documentType"`
	FileName     string              `json:"fileName"`
	FileURL      string              `json:"fileUrl"`
	Description  string              `json:"description"`
}

func documentTypeList() string {
	names := make([]string, len(models.DocumentTypes))
	for i, t := range models.DocumentTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func (h *StudentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	data, err := h.binder.read(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var probe struct {
		DocumentType any `json:"documentType"`
		FileName     any `json:"fileName"`
	}
	if err := decode(data, &probe); err != nil {
		writeError(w, r, err)
		return
	}
	if !nonEmptyString(probe.DocumentType) || !nonEmptyString(probe.FileName) {
		writeError(w, r, apperr.Validation("Document type and file name are required"))
		return
	}
	if err := h.binder.check(r, validation.Document, data, "Document type must be one of: "+documentTypeList()); err != nil {
		writeError(w, r, err)
		return
	}
	var req documentRequest
	if err := decode(data, &req); err != nil {
		writeError(w, r, err)
		return
	}

	doc := models.Document{
		StudentID:    callerID(r),
		DocumentType: req.DocumentType,
		FileName:     strings.TrimSpace(req.FileName),
		FileURL:      req.FileURL,
		Description:  req.Description,
	}
	if err := h.store.CreateDocument(r.Context(), &doc); err != nil {
		writeError(w, r, internal("create document", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"message":    "Document uploaded successfully",
		"documentId": doc.ID,
	})
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

func (h *StudentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	docType := models.DocumentType(r.URL.Query().Get("documentType"))
	docs, err := h.store.ListDocuments(r.Context(), callerID(r), docType)
	if err != nil {
		writeError(w, r, internal("list documents", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "documents": docs})
}

func (h *StudentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID := mux.Vars(r)["documentId"]

	doc, err := h.store.GetDocument(ctx, docID)
	if err != nil {
		writeError(w, r, internal("get document", err))
		return
	}
	if doc == nil {
		writeError(w, r, apperr.NotFound("Document not found"))
		return
	}
	if doc.StudentID != callerID(r) {
		writeError(w, r, apperr.Unauthorized("Unauthorized to delete this document"))
		return
	}
	if err := h.store.DeleteDocument(ctx, docID); err != nil {
		writeError(w, r, internal("delete document", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Document deleted successfully"})
}

func (h *StudentHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"
	list, err := h.store.ListNotifications(r.Context(), callerID(r), unreadOnly, notificationPageSize)
	if err != nil {
		writeError(w, r, internal("list notifications", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "notifications": list})
}

func (h *StudentHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["notificationId"]

	n, err := h.store.GetNotification(ctx, id)
	if err != nil {
		writeError(w, r, internal("get notification", err))
		return
	}
	if n == nil {
		writeError(w, r, apperr.NotFound("Notification not found"))
		return
	}
	if n.StudentID != callerID(r) {
		writeError(w, r, apperr.Unauthorized("Unauthorized"))
		return
	}
	if err := h.store.MarkNotificationRead(ctx, id, h.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, apperr.NotFound("Notification not found"))
			return
		}
		writeError(w, r, internal("mark notification read", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Notification marked as read"})
}
