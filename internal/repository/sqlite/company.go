package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const companyColumns = `id, name, email, industry, location, description, website, status, created, updated`

func scanCompany(s scanner) (models.Company, error) {
	var (
		c                models.Company
		created, updated int64
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Industry, &c.Location, &c.Description, &c.Website, &c.Status, &created, &updated); err != nil {
		return c, err
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return c, nil
}

func (r *SQLiteRepo) CreateCompany(ctx context.Context, c *models.Company) error {
	if c == nil {
		return fmt.Errorf("company is nil")
	}
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if c.Status == "" {
		c.Status = models.OrgApproved
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Industry, c.Location, c.Description, c.Website, c.Status, millis(c.CreatedAt), millis(c.UpdatedAt))
	if err != nil {
		return insertErr("create company", err)
	}
	return nil
}

func (r *SQLiteRepo) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	return queryOne(ctx, r, "get company", scanCompany, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
}

func (r *SQLiteRepo) UpdateCompany(ctx context.Context, c *models.Company) error {
	if c == nil {
		return fmt.Errorf("company is nil")
	}
	c.UpdatedAt = now()

	res, err := r.conn.Exec(ctx, `UPDATE companies SET name = ?, email = ?, industry = ?, location = ?, description = ?, website = ?, status = ?, updated = ? WHERE id = ?`,
		c.Name, c.Email, c.Industry, c.Location, c.Description, c.Website, c.Status, millis(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return affected("update company", res)
}

func (r *SQLiteRepo) DeleteCompany(ctx context.Context, id string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM companies WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) ListCompanies(ctx context.Context, status string) ([]models.Company, error) {
	return queryAll(ctx, r, "list companies", scanCompany,
		`SELECT `+companyColumns+` FROM companies WHERE (? = '' OR status = ?) ORDER BY created, rowid`, status, status)
}

// Jobs

const jobColumns = `id, company_id, title, description, requirements, min_gpa, min_experience_years, location, type, salary, application_deadline, status, created, updated`

func scanJob(s scanner) (models.Job, error) {
	var (
		j                models.Job
		requirements     string
		created, updated int64
	)
	if err := s.Scan(&j.ID, &j.CompanyID, &j.Title, &j.Description, &requirements, &j.MinGPA, &j.MinExperienceYears,
		&j.Location, &j.Type, &j.Salary, &j.ApplicationDeadline, &j.Status, &created, &updated); err != nil {
		return j, err
	}
	if err := decodeJSON(requirements, &j.Requirements); err != nil {
		return j, err
	}
	if j.Requirements.RequiredCertificates == nil {
		j.Requirements.RequiredCertificates = []string{}
	}
	if j.Requirements.Keywords == nil {
		j.Requirements.Keywords = []string{}
	}
	j.CreatedAt = fromMillis(created)
	j.UpdatedAt = fromMillis(updated)
	return j, nil
}

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}
	req, err := encodeJSON(j.Requirements)
	if err != nil {
		return err
	}
	stamp(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if j.Status == "" {
		j.Status = models.JobActive
	}

	_, err = r.conn.Exec(ctx, `INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.CompanyID, j.Title, j.Description, req, j.MinGPA, j.MinExperienceYears, j.Location, j.Type, j.Salary,
		j.ApplicationDeadline, j.Status, millis(j.CreatedAt), millis(j.UpdatedAt))
	if err != nil {
		return insertErr("create job", err)
	}
	return nil
}

func (r *SQLiteRepo) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return queryOne(ctx, r, "get job", scanJob, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
}

func (r *SQLiteRepo) UpdateJob(ctx context.Context, j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}
	req, err := encodeJSON(j.Requirements)
	if err != nil {
		return err
	}
	j.UpdatedAt = now()

	res, err := r.conn.Exec(ctx, `UPDATE jobs SET title = ?, description = ?, requirements = ?, min_gpa = ?, min_experience_years = ?, location = ?,
		type = ?, salary = ?, application_deadline = ?, status = ?, updated = ? WHERE id = ?`,
		j.Title, j.Description, req, j.MinGPA, j.MinExperienceYears, j.Location, j.Type, j.Salary, j.ApplicationDeadline, j.Status,
		millis(j.UpdatedAt), j.ID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return affected("update job", res)
}

func (r *SQLiteRepo) ListJobs(ctx context.Context, f repository.JobFilter) ([]models.Job, error) {
	return queryAll(ctx, r, "list jobs", scanJob,
		`SELECT `+jobColumns+` FROM jobs WHERE (? = '' OR company_id = ?) AND (? = '' OR status = ?) ORDER BY created, rowid`,
		f.CompanyID, f.CompanyID, f.Status, f.Status)
}

// Job applications

func scanJobApplication(s scanner) (models.JobApplication, error) {
	var (
		a                models.JobApplication
		created, updated int64
	)
	if err := s.Scan(&a.ID, &a.StudentID, &a.JobID, &a.Status, &created, &updated); err != nil {
		return a, err
	}
	a.AppliedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func (r *SQLiteRepo) CreateJobApplication(ctx context.Context, a *models.JobApplication) error {
	if a == nil {
		return fmt.Errorf("job application is nil")
	}
	stamp(&a.ID, &a.AppliedAt, &a.UpdatedAt)
	if a.Status == "" {
		a.Status = models.JobApplicationApplied
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO job_applications (id, student_id, job_id, status, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.StudentID, a.JobID, a.Status, millis(a.AppliedAt), millis(a.UpdatedAt))
	if err != nil {
		return insertErr("create job application", err)
	}
	return nil
}

func (r *SQLiteRepo) ListJobApplications(ctx context.Context, f repository.JobApplicationFilter) ([]models.JobApplication, error) {
	return queryAll(ctx, r, "list job applications", scanJobApplication,
		`SELECT id, student_id, job_id, status, created, updated FROM job_applications
		WHERE (? = '' OR student_id = ?) AND (? = '' OR job_id = ?) ORDER BY created, rowid`,
		f.StudentID, f.StudentID, f.JobID, f.JobID)
}

// Saved jobs

func scanSavedJob(s scanner) (models.SavedJob, error) {
	var (
		sj      models.SavedJob
		created int64
	)
	if err := s.Scan(&sj.ID, &sj.StudentID, &sj.JobID, &created); err != nil {
		return sj, err
	}
	sj.SavedAt = fromMillis(created)
	return sj, nil
}

// SaveJob inserts the bookmark unless the pair already exists, in which case
// sj is filled from the stored row.
func (r *SQLiteRepo) SaveJob(ctx context.Context, sj *models.SavedJob) (bool, error) {
	if sj == nil {
		return false, fmt.Errorf("saved job is nil")
	}
	candidate := *sj
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	candidate.SavedAt = now()

	res, err := r.conn.Exec(ctx, `INSERT INTO saved_jobs (id, student_id, job_id, created) VALUES (?, ?, ?, ?) ON CONFLICT (student_id, job_id) DO NOTHING`,
		candidate.ID, candidate.StudentID, candidate.JobID, millis(candidate.SavedAt))
	if err != nil {
		return false, fmt.Errorf("save job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save job: %w", err)
	}
	if n == 1 {
		*sj = candidate
		return true, nil
	}

	existing, err := queryOne(ctx, r, "save job", scanSavedJob,
		`SELECT id, student_id, job_id, created FROM saved_jobs WHERE student_id = ? AND job_id = ?`, sj.StudentID, sj.JobID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		*sj = *existing
	}
	return false, nil
}

func (r *SQLiteRepo) ListSavedJobs(ctx context.Context, studentID string) ([]models.SavedJob, error) {
	return queryAll(ctx, r, "list saved jobs", scanSavedJob,
		`SELECT id, student_id, job_id, created FROM saved_jobs WHERE student_id = ? ORDER BY created, rowid`, studentID)
}
