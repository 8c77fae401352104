package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Alpho052/career-guidance-platform/internal/admissions"
	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/internal/matching"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

var (
	errInstitutionProfileNotFound = apperr.NotFound("Institution profile not found")
	errFacultyNotFound            = apperr.NotFound("Faculty not found")
)

type InstitutionHandler struct {
	store  repository.Store
	binder binder
	guard  *admissions.Guard
}

func NewInstitutionHandler(store repository.Store, schemas *validation.Registry, guard *admissions.Guard) *InstitutionHandler {
	return &InstitutionHandler{store: store, binder: binder{schemas: schemas}, guard: guard}
}

type institutionProfileView struct {
	models.Institution
	CoursesCount      int `json:"coursesCount"`
	ApplicationsCount int `json:"applicationsCount"`
}

func (h *InstitutionHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := callerID(r)

	inst, err := h.store.GetInstitution(ctx, id)
	if err != nil {
		writeError(w, r, internal("get institution", err))
		return
	}
	if inst == nil {
		writeError(w, r, errInstitutionProfileNotFound)
		return
	}
	courses, err := h.store.ListCourses(ctx, repository.CourseFilter{InstitutionID: id})
	if err != nil {
		writeError(w, r, internal("list courses", err))
		return
	}
	apps, err := h.store.ListCourseApplications(ctx, repository.CourseApplicationFilter{InstitutionID: id})
	if err != nil {
		writeError(w, r, internal("list applications", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"institution": institutionProfileView{
			Institution:       *inst,
			CoursesCount:      len(courses),
			ApplicationsCount: len(apps),
		},
	})
}

type institutionRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Password     string  `json:"password"`
	Location     *string `json:"location"`
	Type         *string `json:"type"`
	ContactEmail *string `json:"contactEmail"`
	Phone        *string `json:"phone"`
	Description  *string `json:"description"`
}

// apply copies the editable fields. Email is never changed here.
func (req institutionRequest) apply(i *models.Institution) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		i.Name = strings.TrimSpace(*req.Name)
	}
	set(&i.Location, req.Location)
	set(&i.Type, req.Type)
	set(&i.ContactEmail, req.ContactEmail)
	set(&i.Phone, req.Phone)
	set(&i.Description, req.Description)
}

func (h *InstitutionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req institutionRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	inst, err := h.store.GetInstitution(ctx, callerID(r))
	if err != nil {
		writeError(w, r, internal("get institution", err))
		return
	}
	if inst == nil {
		writeError(w, r, errInstitutionProfileNotFound)
		return
	}
	req.apply(inst)
	if err := h.store.UpdateInstitution(ctx, inst); err != nil {
		writeError(w, r, internal("update institution", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Profile updated successfully"})
}

// Faculties

type facultyRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *InstitutionHandler) GetFaculties(w http.ResponseWriter, r *http.Request) {
	faculties, err := h.store.ListFaculties(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, internal("list faculties", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "faculties": faculties})
}

func (h *InstitutionHandler) AddFaculty(w http.ResponseWriter, r *http.Request) {
	var req facultyRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		writeError(w, r, apperr.Validation("Faculty name is required"))
		return
	}

	f := models.Faculty{InstitutionID: callerID(r), Name: strings.TrimSpace(*req.Name)}
	if req.Description != nil {
		f.Description = strings.TrimSpace(*req.Description)
	}
	if err := h.store.CreateFaculty(r.Context(), &f); err != nil {
		writeError(w, r, internal("create faculty", err))
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"success":   true,
		"message":   "Faculty added successfully",
		"facultyId": f.ID,
	})
}

func (h *InstitutionHandler) ownedFaculty(r *http.Request) (*models.Faculty, error) {
	f, err := h.store.GetFaculty(r.Context(), mux.Vars(r)["facultyId"])
	if err != nil {
		return nil, internal("get faculty", err)
	}
	if f == nil || f.InstitutionID != callerID(r) {
		return nil, errFacultyNotFound
	}
	return f, nil
}

func (h *InstitutionHandler) UpdateFaculty(w http.ResponseWriter, r *http.Request) {
	var req facultyRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.ownedFaculty(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		f.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		f.Description = strings.TrimSpace(*req.Description)
	}
	if err := h.store.UpdateFaculty(r.Context(), f); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, errFacultyNotFound)
			return
		}
		writeError(w, r, internal("update faculty", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Faculty updated successfully"})
}

func (h *InstitutionHandler) DeleteFaculty(w http.ResponseWriter, r *http.Request) {
	f, err := h.ownedFaculty(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteFaculty(r.Context(), f.ID); err != nil {
		writeError(w, r, internal("delete faculty", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Faculty deleted successfully"})
}

// Courses

type courseRequirementsInput struct {
	MinGPA           any `json:"minGPA"`
	RequiredSubjects any `json:"requiredSubjects"`
	MinSubjectGrade  any `json:"minSubjectGrade"`
}

type courseRequest struct {
	Name         *string                  `json:"name"`
	Faculty      *string                  `json:"faculty"`
	Description  *string                  `json:"description"`
	Duration     any                      `json:"duration"`
	Requirements *courseRequirementsInput `json:"requirements"`
	Capacity     any                      `json:"capacity"`
	Status       *string                  `json:"status"`
}

// apply copies the provided fields onto c with requirement values coerced.
func (req courseRequest) apply(c *models.Course) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Faculty != nil && strings.TrimSpace(*req.Faculty) != "" {
		c.Faculty = strings.TrimSpace(*req.Faculty)
	}
	if req.Description != nil {
		c.Description = strings.TrimSpace(*req.Description)
	}
	switch d := req.Duration.(type) {
	case string:
		c.Duration = strings.TrimSpace(d)
	case float64:
		c.Duration = formatNumber(d)
	}
	if req.Requirements != nil {
		c.Requirements = models.CourseRequirements{
			MinGPA:           matching.Number(req.Requirements.MinGPA),
			RequiredSubjects: matching.StringSet(req.Requirements.RequiredSubjects),
			MinSubjectGrade:  matching.Number(req.Requirements.MinSubjectGrade),
		}
	}
	if req.Capacity != nil {
		c.Capacity = int(matching.Number(req.Capacity))
	}
	if req.Status != nil {
		switch s := strings.TrimSpace(*req.Status); s {
		case models.CourseActive, models.CourseInactive:
			c.Status = s
		default:
			return apperr.Validation("Course status must be active or inactive")
		}
	}
	return nil
}

// newCourse builds a course for institutionID from a validated request.
func newCourse(institutionID string, req courseRequest) (models.Course, error) {
	c := models.Course{
		InstitutionID: institutionID,
		Requirements:  models.CourseRequirements{RequiredSubjects: []string{}},
		Status:        models.CourseActive,
	}
	if err := req.apply(&c); err != nil {
		return c, err
	}
	if c.Name == "" || c.Faculty == "" {
		return c, apperr.Validation("Course name and faculty are required")
	}
	return c, nil
}

func (h *InstitutionHandler) GetCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses(r.Context(), repository.CourseFilter{InstitutionID: callerID(r)})
	if err != nil {
		writeError(w, r, internal("list courses", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "courses": courses})
}

func (h *InstitutionHandler) AddCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := h.binder.bind(r, validation.Course, "Course name and faculty are required", &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := newCourse(callerID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.CreateCourse(r.Context(), &c); err != nil {
		writeError(w, r, internal("create course", err))
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"success":  true,
		"message":  "Course added successfully",
		"courseId": c.ID,
	})
}

func (h *InstitutionHandler) ownedCourse(r *http.Request) (*models.Course, error) {
	c, err := h.store.GetCourse(r.Context(), mux.Vars(r)["courseId"])
	if err != nil {
		return nil, internal("get course", err)
	}
	if c == nil || c.InstitutionID != callerID(r) {
		return nil, errCourseNotFound
	}
	return c, nil
}

func (h *InstitutionHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.ownedCourse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.apply(c); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateCourse(r.Context(), c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, errCourseNotFound)
			return
		}
		writeError(w, r, internal("update course", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Course updated successfully"})
}

func (h *InstitutionHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.ownedCourse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteCourse(r.Context(), c.ID); err != nil {
		writeError(w, r, internal("delete course", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Course deleted successfully"})
}

// Applications

type applicantView struct {
	models.Student
	GPA    float64        `json:"gpa"`
	Grades []models.Grade `json:"grades"`
}

type institutionApplicationView struct {
	models.CourseApplication
	Student *applicantView `json:"student,omitempty"`
	Course  *models.Course `json:"course,omitempty"`
}

// GetApplications lists applications to the institution, optionally
// filtered by status, with each student's grade-derived GPA.
func (h *InstitutionHandler) GetApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.store.ListCourseApplications(ctx, repository.CourseApplicationFilter{
		InstitutionID: callerID(r),
		Status:        r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, r, internal("list applications", err))
		return
	}

	out := make([]institutionApplicationView, 0, len(apps))
	for _, a := range apps {
		view := institutionApplicationView{CourseApplication: a}

		student, err := h.store.GetStudent(ctx, a.StudentID)
		if err != nil {
			writeError(w, r, internal("get student", err))
			return
		}
		if student != nil {
			grades, err := h.store.ListGrades(ctx, a.StudentID)
			if err != nil {
				writeError(w, r, internal("list grades", err))
				return
			}
			gpa := student.GPA
			if len(grades) > 0 {
				gpa = matching.GPAFromGrades(grades)
			}
			view.Student = &applicantView{Student: *student, GPA: matching.Round2(gpa), Grades: grades}
		}

		if view.Course, err = h.store.GetCourse(ctx, a.CourseID); err != nil {
			writeError(w, r, internal("get course", err))
			return
		}
		out = append(out, view)
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "applications": out})
}

func (h *InstitutionHandler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}

	app, err := h.guard.SetStatus(r.Context(), callerID(r), mux.Vars(r)["applicationId"], strings.TrimSpace(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":     true,
		"message":     "Application status updated successfully",
		"application": app,
	})
}

type admissionsSettingsRequest struct {
	AdmissionsOpen    any     `json:"admissionsOpen"`
	AdmissionsMessage *string `json:"admissionsMessage"`
	NextIntakeDate    *string `json:"nextIntakeDate"`
	ContactEmail      *string `json:"contactEmail"`
}

func (h *InstitutionHandler) UpdateAdmissionsSettings(w http.ResponseWriter, r *http.Request) {
	var req admissionsSettingsRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	inst, err := h.store.GetInstitution(ctx, callerID(r))
	if err != nil {
		writeError(w, r, internal("get institution", err))
		return
	}
	if inst == nil {
		writeError(w, r, errInstitutionProfileNotFound)
		return
	}

	if open, ok := req.AdmissionsOpen.(bool); ok {
		inst.AdmissionsOpen = open
	}
	if req.AdmissionsMessage != nil {
		inst.AdmissionsMessage = *req.AdmissionsMessage
	}
	if req.NextIntakeDate != nil {
		inst.NextIntakeDate = strings.TrimSpace(*req.NextIntakeDate)
	}
	if req.ContactEmail != nil {
		inst.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}
	if err := h.store.UpdateInstitution(ctx, inst); err != nil {
		writeError(w, r, internal("update institution", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Admissions settings updated successfully"})
}
