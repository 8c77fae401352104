package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/internal/admissions"
	"github.com/Alpho052/career-guidance-platform/internal/config"
	"github.com/Alpho052/career-guidance-platform/internal/mail"
	"github.com/Alpho052/career-guidance-platform/internal/tasks"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Store     repository.Store
	Schemas   *validation.Registry
	Mailer    mail.Mailer
	Submitter tasks.Submitter
	Logger    *zap.Logger
}

func SetupRoutes(cfg *config.Config, version, buildTime string, deps Deps) *mux.Router {
	if deps.Logger != nil {
		SetLogger(deps.Logger)
	}
	SetDevelopment(cfg.IsDevelopment())

	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	guard := admissions.NewGuard(deps.Store, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(deps.Store, deps.Mailer, deps.Schemas, cfg.JWTSecret, cfg.TokenDuration, cfg.IsDevelopment())
	studentHandler := NewStudentHandler(deps.Store, deps.Schemas, guard)
	institutionHandler := NewInstitutionHandler(deps.Store, deps.Schemas, guard)
	companyHandler := NewCompanyHandler(deps.Store, deps.Schemas, deps.Submitter)
	adminHandler := NewAdminHandler(deps.Store, deps.Schemas)
	publicHandler := NewPublicHandler(deps.Store)

	authenticate := Authenticate(deps.Store, cfg.JWTSecret)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods(http.MethodGet)
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods(http.MethodGet)

	apiV1 := r.PathPrefix("/v1").Subrouter()

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authV1.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	authV1.HandleFunc("/verify-email", authHandler.VerifyEmail).Methods(http.MethodPost)
	authV1.Handle("/profile", authenticate(http.HandlerFunc(authHandler.Profile))).Methods(http.MethodGet)

	// Public endpoints
	publicV1 := apiV1.PathPrefix("/public").Subrouter()
	publicV1.HandleFunc("/institutions", publicHandler.Institutions).Methods(http.MethodGet)
	publicV1.HandleFunc("/institutions/{institutionId}/courses", publicHandler.InstitutionCourses).Methods(http.MethodGet)
	publicV1.HandleFunc("/stats", publicHandler.Stats).Methods(http.MethodGet)

	// Student endpoints
	students := apiV1.PathPrefix("/students").Subrouter()
	students.Use(authenticate, Authorize(models.RoleStudent))
	students.HandleFunc("/profile", studentHandler.GetProfile).Methods(http.MethodGet)
	students.HandleFunc("/profile", studentHandler.UpdateProfile).Methods(http.MethodPut)
	students.HandleFunc("/grades", studentHandler.UpdateGrades).Methods(http.MethodPut)
	students.HandleFunc("/apply", studentHandler.ApplyForCourses).Methods(http.MethodPost)
	students.HandleFunc("/applications", studentHandler.GetApplications).Methods(http.MethodGet)
	students.HandleFunc("/applications/{applicationId}/decision", studentHandler.DecideOnOffer).Methods(http.MethodPut)
	students.HandleFunc("/institutions/{institutionId}/courses", studentHandler.GetInstitutionCourses).Methods(http.MethodGet)
	students.HandleFunc("/jobs", studentHandler.GetAvailableJobs).Methods(http.MethodGet)
	students.HandleFunc("/jobs/applications/ids", studentHandler.GetAppliedJobIDs).Methods(http.MethodGet)
	students.HandleFunc("/jobs/saved/ids", studentHandler.GetSavedJobIDs).Methods(http.MethodGet)
	students.HandleFunc("/jobs/{jobId}/apply", studentHandler.ApplyForJob).Methods(http.MethodPost)
	students.HandleFunc("/jobs/{jobId}/save", studentHandler.SaveJob).Methods(http.MethodPost)
	students.HandleFunc("/documents", studentHandler.UploadDocument).Methods(http.MethodPost)
	students.HandleFunc("/documents", studentHandler.GetDocuments).Methods(http.MethodGet)
	students.HandleFunc("/documents/{documentId}", studentHandler.DeleteDocument).Methods(http.MethodDelete)
	students.HandleFunc("/notifications", studentHandler.GetNotifications).Methods(http.MethodGet)
	students.HandleFunc("/notifications/{notificationId}/read", studentHandler.MarkNotificationRead).Methods(http.MethodPut)

	// Institution endpoints
	institutions := apiV1.PathPrefix("/institutions").Subrouter()
	institutions.Use(authenticate, Authorize(models.RoleInstitution))
	institutions.HandleFunc("/profile", institutionHandler.GetProfile).Methods(http.MethodGet)
	institutions.HandleFunc("/profile", institutionHandler.UpdateProfile).Methods(http.MethodPut)
	institutions.HandleFunc("/faculties", institutionHandler.GetFaculties).Methods(http.MethodGet)
	institutions.HandleFunc("/faculties", institutionHandler.AddFaculty).Methods(http.MethodPost)
	institutions.HandleFunc("/faculties/{facultyId}", institutionHandler.UpdateFaculty).Methods(http.MethodPut)
	institutions.HandleFunc("/faculties/{facultyId}", institutionHandler.DeleteFaculty).Methods(http.MethodDelete)
	institutions.HandleFunc("/courses", institutionHandler.GetCourses).Methods(http.MethodGet)
	institutions.HandleFunc("/courses", institutionHandler.AddCourse).Methods(http.MethodPost)
	institutions.HandleFunc("/courses/{courseId}", institutionHandler.UpdateCourse).Methods(http.MethodPut)
	institutions.HandleFunc("/courses/{courseId}", institutionHandler.DeleteCourse).Methods(http.MethodDelete)
	institutions.HandleFunc("/applications", institutionHandler.GetApplications).Methods(http.MethodGet)
	institutions.HandleFunc("/applications/{applicationId}/status", institutionHandler.UpdateApplicationStatus).Methods(http.MethodPut)
	institutions.HandleFunc("/admissions/settings", institutionHandler.UpdateAdmissionsSettings).Methods(http.MethodPut)

	// Company endpoints
	companies := apiV1.PathPrefix("/companies").Subrouter()
	companies.Use(authenticate, Authorize(models.RoleCompany))
	companies.HandleFunc("/profile", companyHandler.GetProfile).Methods(http.MethodGet)
	companies.HandleFunc("/profile", companyHandler.UpdateProfile).Methods(http.MethodPut)
	companies.HandleFunc("/jobs", companyHandler.GetJobs).Methods(http.MethodGet)
	companies.HandleFunc("/jobs", companyHandler.PostJob).Methods(http.MethodPost)
	companies.HandleFunc("/jobs/{jobId}", companyHandler.UpdateJob).Methods(http.MethodPut)
	companies.HandleFunc("/jobs/{jobId}/applicants", companyHandler.GetJobApplicants).Methods(http.MethodGet)

	// Admin endpoints
	admin := apiV1.PathPrefix("/admin").Subrouter()
	admin.Use(authenticate, Authorize(models.RoleAdmin))
	admin.HandleFunc("/stats", adminHandler.GetStats).Methods(http.MethodGet)
	admin.HandleFunc("/institutions", adminHandler.GetInstitutions).Methods(http.MethodGet)
	admin.HandleFunc("/institutions", adminHandler.CreateInstitution).Methods(http.MethodPost)
	admin.HandleFunc("/institutions/{institutionId}", adminHandler.UpdateInstitution).Methods(http.MethodPut)
	admin.HandleFunc("/institutions/{institutionId}", adminHandler.DeleteInstitution).Methods(http.MethodDelete)
	admin.HandleFunc("/institutions/{institutionId}/status", adminHandler.UpdateInstitutionStatus).Methods(http.MethodPut)
	admin.HandleFunc("/institutions/{institutionId}/courses", adminHandler.GetInstitutionCourses).Methods(http.MethodGet)
	admin.HandleFunc("/institutions/{institutionId}/courses", adminHandler.AddInstitutionCourse).Methods(http.MethodPost)
	admin.HandleFunc("/courses/{courseId}", adminHandler.UpdateCourse).Methods(http.MethodPut)
	admin.HandleFunc("/courses/{courseId}", adminHandler.DeleteCourse).Methods(http.MethodDelete)
	admin.HandleFunc("/companies", adminHandler.GetCompanies).Methods(http.MethodGet)
	admin.HandleFunc("/companies/{companyId}/status", adminHandler.UpdateCompanyStatus).Methods(http.MethodPut)
	admin.HandleFunc("/companies/{companyId}", adminHandler.DeleteCompany).Methods(http.MethodDelete)
	admin.HandleFunc("/admissions/publish", adminHandler.PublishAdmissions).Methods(http.MethodPost)
	admin.HandleFunc("/users", adminHandler.GetUsers).Methods(http.MethodGet)

	return r
}
