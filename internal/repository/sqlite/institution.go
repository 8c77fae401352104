package sqlite

import (
	"context"
	"fmt"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const institutionColumns = `id, name, email, location, type, contact_email, phone, description, status, admissions_open, admissions_message, next_intake_date, created, updated`

func scanInstitution(s scanner) (models.Institution, error) {
	var (
		i                models.Institution
		open             int
		created, updated int64
	)
	if err := s.Scan(&i.ID, &i.Name, &i.Email, &i.Location, &i.Type, &i.ContactEmail, &i.Phone, &i.Description, &i.Status,
		&open, &i.AdmissionsMessage, &i.NextIntakeDate, &created, &updated); err != nil {
		return i, err
	}
	i.AdmissionsOpen = open != 0
	i.CreatedAt = fromMillis(created)
	i.UpdatedAt = fromMillis(updated)
	return i, nil
}

func (r *SQLiteRepo) CreateInstitution(ctx context.Context, i *models.Institution) error {
	if i == nil {
		return fmt.Errorf("institution is nil")
	}
	stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	if i.Status == "" {
		i.Status = models.OrgApproved
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO institutions (`+institutionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.Name, i.Email, i.Location, i.Type, i.ContactEmail, i.Phone, i.Description, i.Status,
		boolInt(i.AdmissionsOpen), i.AdmissionsMessage, i.NextIntakeDate, millis(i.CreatedAt), millis(i.UpdatedAt))
	if err != nil {
		return insertErr("create institution", err)
	}
	return nil
}

func (r *SQLiteRepo) GetInstitution(ctx context.Context, id string) (*models.Institution, error) {
	return queryOne(ctx, r, "get institution", scanInstitution, `SELECT `+institutionColumns+` FROM institutions WHERE id = ?`, id)
}

func (r *SQLiteRepo) GetInstitutionByEmail(ctx context.Context, email string) (*models.Institution, error) {
	return queryOne(ctx, r, "get institution by email", scanInstitution,
		`SELECT `+institutionColumns+` FROM institutions WHERE email = ? COLLATE NOCASE ORDER BY created, rowid LIMIT 1`, email)
}

func (r *SQLiteRepo) UpdateInstitution(ctx context.Context, i *models.Institution) error {
	if i == nil {
		return fmt.Errorf("institution is nil")
	}
	i.UpdatedAt = now()

	res, err := r.conn.Exec(ctx, `UPDATE institutions SET name = ?, email = ?, location = ?, type = ?, contact_email = ?, phone = ?, description = ?, status = ?,
		admissions_open = ?, admissions_message = ?, next_intake_date = ?, updated = ? WHERE id = ?`,
		i.Name, i.Email, i.Location, i.Type, i.ContactEmail, i.Phone, i.Description, i.Status,
		boolInt(i.AdmissionsOpen), i.AdmissionsMessage, i.NextIntakeDate, millis(i.UpdatedAt), i.ID)
	if err != nil {
		return fmt.Errorf("update institution: %w", err)
	}
	return affected("update institution", res)
}

func (r *SQLiteRepo) DeleteInstitution(ctx context.Context, id string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM institutions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete institution: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) ListInstitutions(ctx context.Context, status string) ([]models.Institution, error) {
	return queryAll(ctx, r, "list institutions", scanInstitution,
		`SELECT `+institutionColumns+` FROM institutions WHERE (? = '' OR status = ?) ORDER BY created, rowid`, status, status)
}

// Faculties

const facultyColumns = `id, institution_id, name, description, created, updated`

func scanFaculty(s scanner) (models.Faculty, error) {
	var (
		f                models.Faculty
		created, updated int64
	)
	if err := s.Scan(&f.ID, &f.InstitutionID, &f.Name, &f.Description, &created, &updated); err != nil {
		return f, err
	}
	f.CreatedAt = fromMillis(created)
	f.UpdatedAt = fromMillis(updated)
	return f, nil
}

func (r *SQLiteRepo) CreateFaculty(ctx context.Context, f *models.Faculty) error {
	if f == nil {
		return fmt.Errorf("faculty is nil")
	}
	stamp(&f.ID, &f.CreatedAt, &f.UpdatedAt)

	_, err := r.conn.Exec(ctx, `INSERT INTO faculties (`+facultyColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.InstitutionID, f.Name, f.Description, millis(f.CreatedAt), millis(f.UpdatedAt))
	if err != nil {
		return insertErr("create faculty", err)
	}
	return nil
}

func (r *SQLiteRepo) GetFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	return queryOne(ctx, r, "get faculty", scanFaculty, `SELECT `+facultyColumns+` FROM faculties WHERE id = ?`, id)
}

func (r *SQLiteRepo) UpdateFaculty(ctx context.Context, f *models.Faculty) error {
	if f == nil {
		return fmt.Errorf("faculty is nil")
	}
	f.UpdatedAt = now()

	res, err := r.conn.Exec(ctx, `UPDATE faculties SET name = ?, description = ?, updated = ? WHERE id = ?`,
		f.Name, f.Description, millis(f.UpdatedAt), f.ID)
	if err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return affected("update faculty", res)
}

func (r *SQLiteRepo) DeleteFaculty(ctx context.Context, id string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM faculties WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) ListFaculties(ctx context.Context, institutionID string) ([]models.Faculty, error) {
	return queryAll(ctx, r, "list faculties", scanFaculty,
		`SELECT `+facultyColumns+` FROM faculties WHERE institution_id = ? ORDER BY created, rowid`, institutionID)
}

// Courses

const courseColumns = `id, institution_id, name, faculty, description, duration, requirements, capacity, status, created, updated`

func scanCourse(s scanner) (models.Course, error) {
	var (
		c                models.Course
		requirements     string
		created, updated int64
	)
	if err := s.Scan(&c.ID, &c.InstitutionID, &c.Name, &c.Faculty, &c.Description, &c.Duration, &requirements,
		&c.Capacity, &c.Status, &created, &updated); err != nil {
		return c, err
	}
	if err := decodeJSON(requirements, &c.Requirements); err != nil {
		return c, err
	}
	if c.Requirements.RequiredSubjects == nil {
		c.Requirements.RequiredSubjects = []string{}
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return c, nil
}

func (r *SQLiteRepo) CreateCourse(ctx context.Context, c *models.Course) error {
	if c == nil {
		return fmt.Errorf("course is nil")
	}
	req, err := encodeJSON(c.Requirements)
	if err != nil {
		return err
	}
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if c.Status == "" {
		c.Status = models.CourseActive
	}

	_, err = r.conn.Exec(ctx, `INSERT INTO courses (`+courseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.InstitutionID, c.Name, c.Faculty, c.Description, c.Duration, req, c.Capacity, c.Status, millis(c.CreatedAt), millis(c.UpdatedAt))
	if err != nil {
		return insertErr("create course", err)
	}
	return nil
}

func (r *SQLiteRepo) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	return queryOne(ctx, r, "get course", scanCourse, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
}

func (r *SQLiteRepo) UpdateCourse(ctx context.Context, c *models.Course) error {
	if c == nil {
		return fmt.Errorf("course is nil")
	}
	req, err := encodeJSON(c.Requirements)
	if err != nil {
		return err
	}
	c.UpdatedAt = now()

	res, err := r.conn.Exec(ctx, `UPDATE courses SET name = ?, faculty = ?, description = ?, duration = ?, requirements = ?, capacity = ?, status = ?, updated = ? WHERE id = ?`,
		c.Name, c.Faculty, c.Description, c.Duration, req, c.Capacity, c.Status, millis(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return affected("update course", res)
}

func (r *SQLiteRepo) DeleteCourse(ctx context.Context, id string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM courses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) ListCourses(ctx context.Context, f repository.CourseFilter) ([]models.Course, error) {
	return queryAll(ctx, r, "list courses", scanCourse,
		`SELECT `+courseColumns+` FROM courses WHERE (? = '' OR institution_id = ?) AND (? = '' OR status = ?) ORDER BY created, rowid`,
		f.InstitutionID, f.InstitutionID, f.Status, f.Status)
}
