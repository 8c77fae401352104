package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

var (
	errInstitutionNotFound = apperr.NotFound("Institution not found")
	errCompanyNotFound     = apperr.NotFound("Company not found")
)

// orgStatuses are the statuses an admin may give institutions and companies.
var orgStatuses = []string{models.OrgPending, models.OrgApproved, models.OrgSuspended, models.OrgRejected}

type AdminHandler struct {
	store  repository.Store
	binder binder
}

func NewAdminHandler(store repository.Store, schemas *validation.Registry) *AdminHandler {
	return &AdminHandler{store: store, binder: binder{schemas: schemas}}
}

type systemStats struct {
	TotalStudents       int `json:"totalStudents"`
	TotalInstitutions   int `json:"totalInstitutions"`
	TotalCompanies      int `json:"totalCompanies"`
	ActiveJobs          int `json:"activeJobs"`
	TotalApplications   int `json:"totalApplications"`
	PendingInstitutions int `json:"pendingInstitutions"`
	PendingCompanies    int `json:"pendingCompanies"`
}

// countInto runs list in g and stores the length of its result in dst.
func countInto[T any](g *errgroup.Group, dst *int, list func() ([]T, error)) {
	g.Go(func() error {
		items, err := list()
		if err != nil {
			return err
		}
		*dst = len(items)
		return nil
	})
}

// GetStats counts the collections concurrently.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats systemStats
	g, ctx := errgroup.WithContext(r.Context())

	countInto(g, &stats.TotalStudents, func() ([]models.Student, error) { return h.store.ListStudents(ctx) })
	countInto(g, &stats.TotalInstitutions, func() ([]models.Institution, error) {
		return h.store.ListInstitutions(ctx, models.OrgApproved)
	})
	countInto(g, &stats.TotalCompanies, func() ([]models.Company, error) { return h.store.ListCompanies(ctx, models.OrgApproved) })
	countInto(g, &stats.ActiveJobs, func() ([]models.Job, error) {
		return h.store.ListJobs(ctx, repository.JobFilter{Status: models.JobActive})
	})
	countInto(g, &stats.TotalApplications, func() ([]models.CourseApplication, error) {
		return h.store.ListCourseApplications(ctx, repository.CourseApplicationFilter{})
	})
	countInto(g, &stats.PendingInstitutions, func() ([]models.Institution, error) {
		return h.store.ListInstitutions(ctx, models.OrgPending)
	})
	countInto(g, &stats.PendingCompanies, func() ([]models.Company, error) { return h.store.ListCompanies(ctx, models.OrgPending) })

	if err := g.Wait(); err != nil {
		writeError(w, r, internal("system stats", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "stats": stats})
}

// Institutions

func (h *AdminHandler) GetInstitutions(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListInstitutions(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, internal("list institutions", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "institutions": list})
}

// temporaryPassword returns a random password for accounts created by an
// admin without one.
func temporaryPassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CreateInstitution creates a verified institution account together with its
// approved institution record.
func (h *AdminHandler) CreateInstitution(w http.ResponseWriter, r *http.Request) {
	var req institutionRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == nil || req.Email == nil || strings.TrimSpace(*req.Name) == "" || strings.TrimSpace(*req.Email) == "" {
		writeError(w, r, apperr.Validation("Institution name and email are required"))
		return
	}
	email := strings.TrimSpace(*req.Email)

	ctx := r.Context()
	existing, err := h.store.GetInstitutionByEmail(ctx, email)
	if err != nil {
		writeError(w, r, internal("lookup institution", err))
		return
	}
	if existing != nil {
		writeError(w, r, apperr.Conflict("Institution with this email already exists"))
		return
	}

	password := req.Password
	generated := password == ""
	if generated {
		if password, err = temporaryPassword(); err != nil {
			writeError(w, r, internal("temporary password", err))
			return
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		writeError(w, r, internal("hash password", err))
		return
	}

	user := models.User{
		Email:        email,
		Name:         strings.TrimSpace(*req.Name),
		Role:         models.RoleInstitution,
		PasswordHash: string(hash),
		IsVerified:   true,
		Status:       models.UserActive,
	}
	if err := h.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, r, apperr.Conflict("Error creating user account: email already in use"))
			return
		}
		writeError(w, r, internal("create user", err))
		return
	}

	inst := models.Institution{ID: user.ID, Email: email, ContactEmail: email, Status: models.OrgApproved}
	req.apply(&inst)
	if err := h.store.CreateInstitution(ctx, &inst); err != nil {
		if delErr := h.store.DeleteUser(ctx, user.ID); delErr != nil {
			logger.Warn("orphaned institution user", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		writeError(w, r, internal("create institution", err))
		return
	}

	body := envelope{
		"success":       true,
		"message":       "Institution created successfully",
		"institutionId": inst.ID,
	}
	if generated {
		body["temporaryPassword"] = password
	}
	writeJSON(w, http.StatusCreated, body)
}

func (h *AdminHandler) institution(r *http.Request) (*models.Institution, error) {
	inst, err := h.store.GetInstitution(r.Context(), mux.Vars(r)["institutionId"])
	if err != nil {
		return nil, internal("get institution", err)
	}
	if inst == nil {
		return nil, errInstitutionNotFound
	}
	return inst, nil
}

func (h *AdminHandler) UpdateInstitution(w http.ResponseWriter, r *http.Request) {
	var req institutionRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	inst, err := h.institution(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Only the listed fields are editable by an admin.
	req.Description = nil
	req.apply(inst)
	ctx := r.Context()
	if err := h.store.UpdateInstitution(ctx, inst); err != nil {
		writeError(w, r, internal("update institution", err))
		return
	}
	if req.Name != nil {
		if err := h.renameUser(r, inst.ID, inst.Name); err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Institution updated successfully"})
}

func (h *AdminHandler) renameUser(r *http.Request, id, name string) error {
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		return internal("get user", err)
	}
	if user == nil || user.Name == name {
		return nil
	}
	user.Name = name
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		return internal("update user", err)
	}
	return nil
}

// bindOrgStatus reads {status} and checks it against orgStatuses.
func (h *AdminHandler) bindOrgStatus(r *http.Request) (string, error) {
	var req struct {
		Status string `json:"status"`
	}
	if err := h.binder.bind(r, validation.StatusChange, "Invalid status", &req); err != nil {
		return "", err
	}
	for _, s := range orgStatuses {
		if s == req.Status {
			return s, nil
		}
	}
	return "", apperr.Validation("Invalid status")
}

// syncUserStatus keeps the account status of an organisation's user in line
// with the organisation: suspended stays suspended, anything else is active.
func (h *AdminHandler) syncUserStatus(r *http.Request, id, orgStatus string) error {
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		return internal("get user", err)
	}
	if user == nil {
		return nil
	}
	user.Status = models.UserActive
	if orgStatus == models.OrgSuspended {
		user.Status = models.UserSuspended
	}
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		return internal("update user", err)
	}
	return nil
}

func (h *AdminHandler) UpdateInstitutionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.bindOrgStatus(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	inst, err := h.institution(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	inst.Status = status
	if err := h.store.UpdateInstitution(r.Context(), inst); err != nil {
		writeError(w, r, internal("update institution", err))
		return
	}
	if err := h.syncUserStatus(r, inst.ID, status); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Institution status updated successfully"})
}

// DeleteInstitution removes the institution, its courses and its user.
func (h *AdminHandler) DeleteInstitution(w http.ResponseWriter, r *http.Request) {
	inst, err := h.institution(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	courses, err := h.store.ListCourses(ctx, repository.CourseFilter{InstitutionID: inst.ID})
	if err != nil {
		writeError(w, r, internal("list courses", err))
		return
	}
	for _, c := range courses {
		if err := h.store.DeleteCourse(ctx, c.ID); err != nil {
			writeError(w, r, internal("delete course", err))
			return
		}
	}
	if err := h.store.DeleteInstitution(ctx, inst.ID); err != nil {
		writeError(w, r, internal("delete institution", err))
		return
	}
	if err := h.store.DeleteUser(ctx, inst.ID); err != nil {
		writeError(w, r, internal("delete user", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Institution deleted successfully"})
}

func (h *AdminHandler) GetInstitutionCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses(r.Context(), repository.CourseFilter{InstitutionID: mux.Vars(r)["institutionId"]})
	if err != nil {
		writeError(w, r, internal("list courses", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "courses": courses})
}

func (h *AdminHandler) AddInstitutionCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := h.binder.bind(r, validation.Course, "Course name and faculty are required", &req); err != nil {
		writeError(w, r, err)
		return
	}
	inst, err := h.institution(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := newCourse(inst.ID, req)
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

func (h *AdminHandler) course(r *http.Request) (*models.Course, error) {
	c, err := h.store.GetCourse(r.Context(), mux.Vars(r)["courseId"])
	if err != nil {
		return nil, internal("get course", err)
	}
	if c == nil {
		return nil, errCourseNotFound
	}
	return c, nil
}

func (h *AdminHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.course(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.apply(c); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateCourse(r.Context(), c); err != nil {
		writeError(w, r, internal("update course", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Course updated successfully"})
}

func (h *AdminHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.course(r)
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

// Companies

// GetCompanies lists companies. Without a status filter and with no company
// records at all, company user accounts are listed instead.
func (h *AdminHandler) GetCompanies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	companies, err := h.store.ListCompanies(ctx, status)
	if err != nil {
		writeError(w, r, internal("list companies", err))
		return
	}

	if len(companies) == 0 && status == "" {
		users, err := h.store.ListUsers(ctx, models.RoleCompany)
		if err != nil {
			writeError(w, r, internal("list company users", err))
			return
		}
		for _, u := range users {
			s := models.OrgApproved
			if u.Status == models.UserSuspended {
				s = models.OrgSuspended
			}
			companies = append(companies, models.Company{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Status:    s,
				CreatedAt: u.CreatedAt,
				UpdatedAt: u.UpdatedAt,
			})
		}
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "companies": companies})
}

func (h *AdminHandler) company(r *http.Request) (*models.Company, error) {
	c, err := h.store.GetCompany(r.Context(), mux.Vars(r)["companyId"])
	if err != nil {
		return nil, internal("get company", err)
	}
	if c == nil {
		return nil, errCompanyNotFound
	}
	return c, nil
}

func (h *AdminHandler) UpdateCompanyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.bindOrgStatus(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.company(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c.Status = status
	if err := h.store.UpdateCompany(r.Context(), c); err != nil {
		writeError(w, r, internal("update company", err))
		return
	}
	if err := h.syncUserStatus(r, c.ID, status); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Company status updated successfully"})
}

// DeleteCompany removes the company and its user. Its jobs are closed so
// existing applications keep their reference.
func (h *AdminHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.company(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	jobs, err := h.store.ListJobs(ctx, repository.JobFilter{CompanyID: c.ID, Status: models.JobActive})
	if err != nil {
		writeError(w, r, internal("list jobs", err))
		return
	}
	for i := range jobs {
		jobs[i].Status = models.JobClosed
		if err := h.store.UpdateJob(ctx, &jobs[i]); err != nil {
			writeError(w, r, internal("close job", err))
			return
		}
	}
	if err := h.store.DeleteCompany(ctx, c.ID); err != nil {
		writeError(w, r, internal("delete company", err))
		return
	}
	if err := h.store.DeleteUser(ctx, c.ID); err != nil {
		writeError(w, r, internal("delete user", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Company deleted successfully"})
}

func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context(), models.Role(r.URL.Query().Get("role")))
	if err != nil {
		writeError(w, r, internal("list users", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "users": users})
}

// PublishAdmissions opens or closes admissions for one institution or, when
// none is named, for all of them.
func (h *AdminHandler) PublishAdmissions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action        string `json:"action"`
		InstitutionID string `json:"institutionId"`
	}
	if err := h.binder.bind(r, "", "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	var open bool
	switch req.Action {
	case "open":
		open = true
	case "close":
	default:
		writeError(w, r, apperr.Validation(`Action must be "open" or "close"`))
		return
	}

	ctx := r.Context()
	var targets []models.Institution
	if req.InstitutionID != "" {
		inst, err := h.store.GetInstitution(ctx, req.InstitutionID)
		if err != nil {
			writeError(w, r, internal("get institution", err))
			return
		}
		if inst == nil {
			writeError(w, r, errInstitutionNotFound)
			return
		}
		targets = append(targets, *inst)
	} else {
		all, err := h.store.ListInstitutions(ctx, "")
		if err != nil {
			writeError(w, r, internal("list institutions", err))
			return
		}
		targets = all
	}

	for i := range targets {
		targets[i].AdmissionsOpen = open
		if err := h.store.UpdateInstitution(ctx, &targets[i]); err != nil {
			writeError(w, r, internal(fmt.Sprintf("update institution %s", targets[i].ID), err))
			return
		}
	}

	verb := "closed"
	if open {
		verb = "opened"
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": fmt.Sprintf("Admissions %s successfully", verb),
		"updated": len(targets),
	})
}
