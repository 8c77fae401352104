package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

const studentColumns = `id, email, name, phone, gpa, skills, experience, document_count, status, created, updated`

func scanStudent(s scanner) (models.Student, error) {
	var (
		st               models.Student
		experience       string
		created, updated int64
	)
	if err := s.Scan(&st.ID, &st.Email, &st.Name, &st.Phone, &st.GPA, &st.Skills, &experience, &st.DocumentCount, &st.Status, &created, &updated); err != nil {
		return st, err
	}
	if err := decodeJSON(experience, &st.Experience); err != nil {
		return st, err
	}
	if st.Experience == nil {
		st.Experience = []models.Experience{}
	}
	st.CreatedAt = fromMillis(created)
	st.UpdatedAt = fromMillis(updated)
	return st, nil
}

func experienceJSON(exp []models.Experience) (string, error) {
	if exp == nil {
		exp = []models.Experience{}
	}
	return encodeJSON(exp)
}

func (r *SQLiteRepo) CreateStudent(ctx context.Context, st *models.Student) error {
	if st == nil {
		return fmt.Errorf("student is nil")
	}
	exp, err := experienceJSON(st.Experience)
	if err != nil {
		return err
	}
	stamp(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	if st.Status == "" {
		st.Status = models.OrgApproved
	}

	_, err = r.conn.Exec(ctx, `INSERT INTO students (`+studentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Email, st.Name, st.Phone, st.GPA, st.Skills, exp, st.DocumentCount, st.Status, millis(st.CreatedAt), millis(st.UpdatedAt))
	if err != nil {
		return insertErr("create student", err)
	}
	return nil
}

func (r *SQLiteRepo) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	return queryOne(ctx, r, "get student", scanStudent, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
}

// UpdateStudent writes the profile fields. gpa and document_count are owned by
// ReplaceGrades and the document methods and are left alone.
func (r *SQLiteRepo) UpdateStudent(ctx context.Context, st *models.Student) error {
	if st == nil {
		return fmt.Errorf("student is nil")
	}
	exp, err := experienceJSON(st.Experience)
	if err != nil {
		return err
	}
	st.UpdatedAt = now()

	res, err := r.conn.Exec(ctx, `UPDATE students SET email = ?, name = ?, phone = ?, skills = ?, experience = ?, status = ?, updated = ? WHERE id = ?`,
		st.Email, st.Name, st.Phone, st.Skills, exp, st.Status, millis(st.UpdatedAt), st.ID)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return affected("update student", res)
}

func (r *SQLiteRepo) ListStudents(ctx context.Context) ([]models.Student, error) {
	return queryAll(ctx, r, "list students", scanStudent, `SELECT `+studentColumns+` FROM students ORDER BY created, rowid`)
}

// Grades

func scanGrade(s scanner) (models.Grade, error) {
	var (
		g                models.Grade
		created, updated int64
	)
	if err := s.Scan(&g.ID, &g.StudentID, &g.Subject, &g.Grade, &created, &updated); err != nil {
		return g, err
	}
	g.CreatedAt = fromMillis(created)
	g.UpdatedAt = fromMillis(updated)
	return g, nil
}

func (r *SQLiteRepo) ListGrades(ctx context.Context, studentID string) ([]models.Grade, error) {
	return queryAll(ctx, r, "list grades", scanGrade,
		`SELECT id, student_id, subject, grade, created, updated FROM grades WHERE student_id = ? ORDER BY created, rowid`, studentID)
}

func (r *SQLiteRepo) ReplaceGrades(ctx context.Context, studentID string, grades []models.Grade, gpa float64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		t := now()
		res, err := tx.ExecContext(ctx, `UPDATE students SET gpa = ?, updated = ? WHERE id = ?`, gpa, millis(t), studentID)
		if err != nil {
			return fmt.Errorf("replace grades: %w", err)
		}
		if err := affected("replace grades", res); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM grades WHERE student_id = ?`, studentID); err != nil {
			return fmt.Errorf("replace grades: clear: %w", err)
		}

		for i := range grades {
			g := &grades[i]
			g.StudentID = studentID
			stamp(&g.ID, &g.CreatedAt, &g.UpdatedAt)
			if _, err := tx.ExecContext(ctx, `INSERT INTO grades (id, student_id, subject, grade, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
				g.ID, g.StudentID, g.Subject, g.Grade, millis(g.CreatedAt), millis(g.UpdatedAt)); err != nil {
				return insertErr("replace grades: insert", err)
			}
		}
		return nil
	})
}

// Documents

const documentColumns = `id, student_id, document_type, file_name, file_url, description, created, updated`

func scanDocument(s scanner) (models.Document, error) {
	var (
		d                models.Document
		docType          string
		created, updated int64
	)
	if err := s.Scan(&d.ID, &d.StudentID, &docType, &d.FileName, &d.FileURL, &d.Description, &created, &updated); err != nil {
		return d, err
	}
	d.DocumentType = models.DocumentType(docType)
	d.UploadedAt = fromMillis(created)
	d.UpdatedAt = fromMillis(updated)
	return d, nil
}

// CreateDocument stores the document and bumps the owner's document count.
func (r *SQLiteRepo) CreateDocument(ctx context.Context, d *models.Document) error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		stamp(&d.ID, &d.UploadedAt, &d.UpdatedAt)
		if _, err := tx.ExecContext(ctx, `INSERT INTO student_documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.StudentID, string(d.DocumentType), d.FileName, d.FileURL, d.Description, millis(d.UploadedAt), millis(d.UpdatedAt)); err != nil {
			return insertErr("create document", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE students SET document_count = document_count + 1, updated = ? WHERE id = ?`,
			millis(d.UpdatedAt), d.StudentID); err != nil {
			return fmt.Errorf("create document: count: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepo) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return queryOne(ctx, r, "get document", scanDocument, `SELECT `+documentColumns+` FROM student_documents WHERE id = ?`, id)
}

func (r *SQLiteRepo) ListDocuments(ctx context.Context, studentID string, docType models.DocumentType) ([]models.Document, error) {
	return queryAll(ctx, r, "list documents", scanDocument,
		`SELECT `+documentColumns+` FROM student_documents WHERE student_id = ? AND (? = '' OR document_type = ?) ORDER BY created, rowid`,
		studentID, string(docType), string(docType))
}

// DeleteDocument removes the document and decrements the owner's count, never
// below zero. Deleting a missing document is a no-op.
func (r *SQLiteRepo) DeleteDocument(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var studentID string
		err := tx.QueryRowContext(ctx, `DELETE FROM student_documents WHERE id = ? RETURNING student_id`, id).Scan(&studentID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE students SET document_count = MAX(document_count - 1, 0), updated = ? WHERE id = ?`,
			millis(now()), studentID); err != nil {
			return fmt.Errorf("delete document: count: %w", err)
		}
		return nil
	})
}
