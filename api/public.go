package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

// PublicHandler serves the unauthenticated landing page data.
type PublicHandler struct {
	store repository.Store
}

func NewPublicHandler(store repository.Store) *PublicHandler {
	return &PublicHandler{store: store}
}

// Institutions lists approved institutions, or every institution while none
// is approved yet.
func (h *PublicHandler) Institutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.store.ListInstitutions(ctx, models.OrgApproved)
	if err == nil && len(list) == 0 {
		list, err = h.store.ListInstitutions(ctx, "")
	}
	if err != nil {
		writeError(w, r, apperr.New(apperr.KindInternal, "Failed to fetch institutions", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "data": list, "count": len(list)})
}

// InstitutionCourses lists an institution's active courses, or all of them
// when none is active.
func (h *PublicHandler) InstitutionCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["institutionId"]
	list, err := h.store.ListCourses(ctx, repository.CourseFilter{InstitutionID: id, Status: models.CourseActive})
	if err == nil && len(list) == 0 {
		list, err = h.store.ListCourses(ctx, repository.CourseFilter{InstitutionID: id})
	}
	if err != nil {
		writeError(w, r, apperr.New(apperr.KindInternal, "Failed to fetch courses", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "data": list, "count": len(list)})
}

type landingStats struct {
	Students             int `json:"students"`
	Institutions         int `json:"institutions"`
	Companies            int `json:"companies"`
	Jobs                 int `json:"jobs"`
	ApprovedInstitutions int `json:"approvedInstitutions"`
	PendingInstitutions  int `json:"pendingInstitutions"`
	ApprovedCompanies    int `json:"approvedCompanies"`
	PendingCompanies     int `json:"pendingCompanies"`
}

// Stats gathers the landing page counts concurrently.
func (h *PublicHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var (
		stats        landingStats
		institutions []models.Institution
		companies    []models.Company
	)
	g, ctx := errgroup.WithContext(r.Context())

	countInto(g, &stats.Students, func() ([]models.Student, error) { return h.store.ListStudents(ctx) })
	countInto(g, &stats.Jobs, func() ([]models.Job, error) {
		return h.store.ListJobs(ctx, repository.JobFilter{Status: models.JobActive})
	})
	g.Go(func() (err error) {
		institutions, err = h.store.ListInstitutions(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		companies, err = h.store.ListCompanies(ctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, apperr.New(apperr.KindInternal, "Failed to fetch statistics", err))
		return
	}

	stats.Institutions = len(institutions)
	for _, i := range institutions {
		switch i.Status {
		case models.OrgApproved:
			stats.ApprovedInstitutions++
		case models.OrgPending:
			stats.PendingInstitutions++
		}
	}
	stats.Companies = len(companies)
	for _, c := range companies {
		switch c.Status {
		case models.OrgApproved:
			stats.ApprovedCompanies++
		case models.OrgPending:
			stats.PendingCompanies++
		}
	}
	if stats.Companies == 0 {
		users, err := h.store.ListUsers(r.Context(), models.RoleCompany)
		if err != nil {
			writeError(w, r, apperr.New(apperr.KindInternal, "Failed to fetch statistics", err))
			return
		}
		stats.Companies = len(users)
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "data": stats})
}
