package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
// Get-style lookups return (nil, nil) when the record does not exist.

var (
	// ErrNotFound is returned by conditional writes whose target row is gone.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrAdmissionConflict is returned by AdmitExclusive when the student
	// already holds another admitted offer.
	ErrAdmissionConflict = errors.New("student already holds an admitted offer")
	// ErrStaleStatus is returned when a conditional status write finds the
	// record in a different status than required.
	ErrStaleStatus = errors.New("record status changed")
)

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

type StudentRepo interface {
	CreateStudent(ctx context.Context, s *models.Student) error
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	UpdateStudent(ctx context.Context, s *models.Student) error
	ListStudents(ctx context.Context) ([]models.Student, error)
}

type GradeRepo interface {
	ListGrades(ctx context.Context, studentID string) ([]models.Grade, error)
	// ReplaceGrades swaps the student's grade set and stores gpa on the
	// student record in a single transaction.
	ReplaceGrades(ctx context.Context, studentID string, grades []models.Grade, gpa float64) error
}

type DocumentRepo interface {
	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// ListDocuments filters by type when docType is non-empty.
	ListDocuments(ctx context.Context, studentID string, docType models.DocumentType) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

type InstitutionRepo interface {
	CreateInstitution(ctx context.Context, i *models.Institution) error
	GetInstitution(ctx context.Context, id string) (*models.Institution, error)
	GetInstitutionByEmail(ctx context.Context, email string) (*models.Institution, error)
	UpdateInstitution(ctx context.Context, i *models.Institution) error
	DeleteInstitution(ctx context.Context, id string) error
	ListInstitutions(ctx context.Context, status string) ([]models.Institution, error)
}

type FacultyRepo interface {
	CreateFaculty(ctx context.Context, f *models.Faculty) error
	GetFaculty(ctx context.Context, id string) (*models.Faculty, error)
	UpdateFaculty(ctx context.Context, f *models.Faculty) error
	DeleteFaculty(ctx context.Context, id string) error
	ListFaculties(ctx context.Context, institutionID string) ([]models.Faculty, error)
}

type CourseFilter struct {
	InstitutionID string
	Status        string
}

type CourseRepo interface {
	CreateCourse(ctx context.Context, c *models.Course) error
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	UpdateCourse(ctx context.Context, c *models.Course) error
	DeleteCourse(ctx context.Context, id string) error
	ListCourses(ctx context.Context, f CourseFilter) ([]models.Course, error)
}

type CompanyRepo interface {
	CreateCompany(ctx context.Context, c *models.Company) error
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	UpdateCompany(ctx context.Context, c *models.Company) error
	DeleteCompany(ctx context.Context, id string) error
	ListCompanies(ctx context.Context, status string) ([]models.Company, error)
}

type JobFilter struct {
	CompanyID string
	Status    string
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, j *models.Job) error
	ListJobs(ctx context.Context, f JobFilter) ([]models.Job, error)
}

type JobApplicationFilter struct {
	StudentID string
	JobID     string
}

type JobApplicationRepo interface {
	// CreateJobApplication returns ErrDuplicate when the (student, job) pair
	// already has an application.
	CreateJobApplication(ctx context.Context, a *models.JobApplication) error
	ListJobApplications(ctx context.Context, f JobApplicationFilter) ([]models.JobApplication, error)
}

type SavedJobRepo interface {
	// SaveJob is idempotent; created is false when the job was already saved.
	SaveJob(ctx context.Context, s *models.SavedJob) (created bool, err error)
	ListSavedJobs(ctx context.Context, studentID string) ([]models.SavedJob, error)
}

type CourseApplicationFilter struct {
	StudentID     string
	InstitutionID string
	Status        string
}

type CourseApplicationRepo interface {
	// CreateCourseApplications inserts all applications or none. A repeated
	// (student, course) pair yields ErrDuplicate.
	CreateCourseApplications(ctx context.Context, apps []models.CourseApplication) error
	GetCourseApplication(ctx context.Context, id string) (*models.CourseApplication, error)
	ListCourseApplications(ctx context.Context, f CourseApplicationFilter) ([]models.CourseApplication, error)
	SetCourseApplicationStatus(ctx context.Context, id, status string) error
	// AdmitExclusive moves the application to admitted only if no other
	// application of the same student is admitted. The check and the write
	// are one atomic unit; a violation yields ErrAdmissionConflict.
	AdmitExclusive(ctx context.Context, id string) error
	// RecordDecision sets the student's final status on an application that is
	// still admitted, otherwise ErrStaleStatus.
	RecordDecision(ctx context.Context, id, status, decidedBy string, at time.Time) error
}

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	// ListNotifications returns newest first; limit <= 0 means no limit.
	ListNotifications(ctx context.Context, studentID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
}

// Store is the full persistence port consumed by the API layer.
type Store interface {
	UserRepo
	StudentRepo
	GradeRepo
	DocumentRepo
	InstitutionRepo
	FacultyRepo
	CourseRepo
	CompanyRepo
	JobRepo
	JobApplicationRepo
	SavedJobRepo
	CourseApplicationRepo
	NotificationRepo
}
