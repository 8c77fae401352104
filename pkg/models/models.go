package models

import "time"

// Domain records matching the schema in db/migrations/0001_init.sql

type Role string

const (
	RoleStudent     Role = "student"
	RoleInstitution Role = "institution"
	RoleCompany     Role = "company"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstitution, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

// Account and organisation statuses.
const (
	UserActive    = "active"
	UserSuspended = "suspended"

	OrgPending   = "pending"
	OrgApproved  = "approved"
	OrgSuspended = "suspended"
	OrgRejected  = "rejected"
)

type User struct {
	ID               string    `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	Name             string    `json:"name" db:"name"`
	Role             Role      `json:"role" db:"role"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	IsVerified       bool      `json:"isVerified" db:"is_verified"`
	VerificationCode string    `json:"-" db:"verification_code"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"createdAt" db:"created"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated"`
}

type Experience struct {
	Company     string  `json:"company"`
	Role        string  `json:"role"`
	Years       float64 `json:"years"`
	Description string  `json:"description"`
}

type Student struct {
	ID            string       `json:"id" db:"id"`
	Email         string       `json:"email" db:"email"`
	Name          string       `json:"name" db:"name"`
	Phone         string       `json:"phone,omitempty" db:"phone"`
	GPA           float64      `json:"gpa" db:"gpa"`
	Skills        string       `json:"skills" db:"skills"`
	Experience    []Experience `json:"experience" db:"experience"`
	DocumentCount int          `json:"documentCount" db:"document_count"`
	Status        string       `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"createdAt" db:"created"`
	UpdatedAt     time.Time    `json:"updatedAt" db:"updated"`
}

type Grade struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"studentId" db:"student_id"`
	Subject   string    `json:"subject" db:"subject"`
	Grade     float64   `json:"grade" db:"grade"`
	CreatedAt time.Time `json:"createdAt" db:"created"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated"`
}

type DocumentType string

const (
	DocAdditional  DocumentType = "additional"
	DocTranscript  DocumentType = "transcript"
	DocCertificate DocumentType = "certificate"
	DocDiploma     DocumentType = "diploma"
	DocOther       DocumentType = "other"
)

var DocumentTypes = []DocumentType{DocAdditional, DocTranscript, DocCertificate, DocDiploma, DocOther}

type Document struct {
	ID           string       `json:"id" db:"id"`
	StudentID    string       `json:"studentId" db:"student_id"`
	DocumentType DocumentType `json:"documentType" db:"document_type"`
	FileName     string       `json:"fileName" db:"file_name"`
	FileURL      string       `json:"fileUrl" db:"file_url"`
	Description  string       `json:"description" db:"description"`
	UploadedAt   time.Time    `json:"uploadedAt" db:"created"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated"`
}

type Institution struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Email             string    `json:"email" db:"email"`
	Location          string    `json:"location" db:"location"`
	Type              string    `json:"type" db:"type"`
	ContactEmail      string    `json:"contactEmail" db:"contact_email"`
	Phone             string    `json:"phone" db:"phone"`
	Description       string    `json:"description" db:"description"`
	Status            string    `json:"status" db:"status"`
	AdmissionsOpen    bool      `json:"admissionsOpen" db:"admissions_open"`
	AdmissionsMessage string    `json:"admissionsMessage" db:"admissions_message"`
	NextIntakeDate    string    `json:"nextIntakeDate" db:"next_intake_date"`
	CreatedAt         time.Time `json:"createdAt" db:"created"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated"`
}

type Faculty struct {
	ID            string    `json:"id" db:"id"`
	InstitutionID string    `json:"institutionId" db:"institution_id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	CreatedAt     time.Time `json:"createdAt" db:"created"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated"`
}

type CourseRequirements struct {
	MinGPA           float64  `json:"minGPA"`
	RequiredSubjects []string `json:"requiredSubjects"`
	MinSubjectGrade  float64  `json:"minSubjectGrade"`
}

const (
	CourseActive   = "active"
	CourseInactive = "inactive"
)

type Course struct {
	ID            string             `json:"id" db:"id"`
	InstitutionID string             `json:"institutionId" db:"institution_id"`
	Name          string             `json:"name" db:"name"`
	Faculty       string             `json:"faculty" db:"faculty"`
	Description   string             `json:"description" db:"description"`
	Duration      string             `json:"duration" db:"duration"`
	Requirements  CourseRequirements `json:"requirements" db:"requirements"`
	Capacity      int                `json:"capacity" db:"capacity"`
	Status        string             `json:"status" db:"status"`
	CreatedAt     time.Time          `json:"createdAt" db:"created"`
	UpdatedAt     time.Time          `json:"updatedAt" db:"updated"`
}

type Company struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Industry    string    `json:"industry" db:"industry"`
	Location    string    `json:"location" db:"location"`
	Description string    `json:"description" db:"description"`
	Website     string    `json:"website" db:"website"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated"`
}

type JobRequirements struct {
	Education            string   `json:"education"`
	Experience           string   `json:"experience"`
	Skills               string   `json:"skills"`
	RequiredCertificates []string `json:"requiredCertificates"`
	Keywords             []string `json:"keywords"`
}

const (
	JobActive = "active"
	JobClosed = "closed"
)

type Job struct {
	ID                  string          `json:"id" db:"id"`
	CompanyID           string          `json:"companyId" db:"company_id"`
	Title               string          `json:"title" db:"title"`
	Description         string          `json:"description" db:"description"`
	Requirements        JobRequirements `json:"requirements" db:"requirements"`
	MinGPA              float64         `json:"minGPA" db:"min_gpa"`
	MinExperienceYears  float64         `json:"minExperienceYears" db:"min_experience_years"`
	Location            string          `json:"location" db:"location"`
	Type                string          `json:"type" db:"type"`
	Salary              string          `json:"salary" db:"salary"`
	ApplicationDeadline string          `json:"applicationDeadline,omitempty" db:"application_deadline"`
	Status              string          `json:"status" db:"status"`
	CreatedAt           time.Time       `json:"createdAt" db:"created"`
	UpdatedAt           time.Time       `json:"updatedAt" db:"updated"`
}

const JobApplicationApplied = "applied"

type JobApplication struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"studentId" db:"student_id"`
	JobID     string    `json:"jobId" db:"job_id"`
	Status    string    `json:"status" db:"status"`
	AppliedAt time.Time `json:"appliedAt" db:"created"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated"`
}

type SavedJob struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"studentId" db:"student_id"`
	JobID     string    `json:"jobId" db:"job_id"`
	SavedAt   time.Time `json:"savedAt" db:"created"`
}

// Course application statuses.
const (
	StatusPending     = "pending"
	StatusAdmitted    = "admitted"
	StatusRejected    = "rejected"
	StatusWaitingList = "waiting-list"
	StatusAccepted    = "accepted"
	StatusDeclined    = "declined"
)

type CourseApplication struct {
	ID            string     `json:"id" db:"id"`
	StudentID     string     `json:"studentId" db:"student_id"`
	InstitutionID string     `json:"institutionId" db:"institution_id"`
	CourseID      string     `json:"courseId" db:"course_id"`
	Status        string     `json:"status" db:"status"`
	AppliedAt     time.Time  `json:"appliedAt" db:"created"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated"`
	DecisionAt    *time.Time `json:"decisionAt,omitempty" db:"decision_at"`
	DecisionBy    string     `json:"decisionBy,omitempty" db:"decision_by"`
}

const NotificationJobOpportunity = "job_opportunity"

type Notification struct {
	ID        string     `json:"id" db:"id"`
	StudentID string     `json:"studentId" db:"student_id"`
	Type      string     `json:"type" db:"type"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	JobID     string     `json:"jobId,omitempty" db:"job_id"`
	Read      bool       `json:"read" db:"is_read"`
	ReadAt    *time.Time `json:"readAt,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated"`
}
