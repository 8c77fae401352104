package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const courseApplicationColumns = `id, student_id, institution_id, course_id, status, created, updated, decision_at, decision_by`

func scanCourseApplication(s scanner) (models.CourseApplication, error) {
	var (
		a                models.CourseApplication
		created, updated int64
		decisionAt       sql.NullInt64
	)
	if err := s.Scan(&a.ID, &a.StudentID, &a.InstitutionID, &a.CourseID, &a.Status, &created, &updated, &decisionAt, &a.DecisionBy); err != nil {
		return a, err
	}
	a.AppliedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	a.DecisionAt = fromNullMillis(decisionAt)
	return a, nil
}

// CreateCourseApplications inserts the batch in one transaction.
func (r *SQLiteRepo) CreateCourseApplications(ctx context.Context, apps []models.CourseApplication) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for i := range apps {
			a := &apps[i]
			stamp(&a.ID, &a.AppliedAt, &a.UpdatedAt)
			if a.Status == "" {
				a.Status = models.StatusPending
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO course_applications (`+courseApplicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				a.ID, a.StudentID, a.InstitutionID, a.CourseID, a.Status, millis(a.AppliedAt), millis(a.UpdatedAt),
				nullMillis(a.DecisionAt), a.DecisionBy); err != nil {
				return insertErr("create course applications", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepo) GetCourseApplication(ctx context.Context, id string) (*models.CourseApplication, error) {
	return queryOne(ctx, r, "get course application", scanCourseApplication,
		`SELECT `+courseApplicationColumns+` FROM course_applications WHERE id = ?`, id)
}

func (r *SQLiteRepo) ListCourseApplications(ctx context.Context, f repository.CourseApplicationFilter) ([]models.CourseApplication, error) {
	return queryAll(ctx, r, "list course applications", scanCourseApplication,
		`SELECT `+courseApplicationColumns+` FROM course_applications
		WHERE (? = '' OR student_id = ?) AND (? = '' OR institution_id = ?) AND (? = '' OR status = ?)
		ORDER BY created, rowid`,
		f.StudentID, f.StudentID, f.InstitutionID, f.InstitutionID, f.Status, f.Status)
}

// SetCourseApplicationStatus writes status unconditionally. A second admitted
// row for the same student is rejected by the partial unique index and
// surfaces as ErrAdmissionConflict.
func (r *SQLiteRepo) SetCourseApplicationStatus(ctx context.Context, id, status string) error {
	res, err := r.conn.Exec(ctx, `UPDATE course_applications SET status = ?, updated = ? WHERE id = ?`, status, millis(now()), id)
	if err != nil {
		if isUnique(err) {
			return fmt.Errorf("set course application status: %w", repository.ErrAdmissionConflict)
		}
		return fmt.Errorf("set course application status: %w", err)
	}
	return affected("set course application status", res)
}

// AdmitExclusive admits the application with one conditional UPDATE. The
// NOT EXISTS guard and the partial unique index both refuse a second admitted
// offer for the same student.
func (r *SQLiteRepo) AdmitExclusive(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE course_applications SET status = ?, updated = ?
			WHERE id = ? AND NOT EXISTS (
				SELECT 1 FROM course_applications other
				WHERE other.student_id = course_applications.student_id
				  AND other.id <> course_applications.id
				  AND other.status = ?
			)`, models.StatusAdmitted, millis(now()), id, models.StatusAdmitted)
		if err != nil {
			if isUnique(err) {
				return fmt.Errorf("admit: %w", repository.ErrAdmissionConflict)
			}
			return fmt.Errorf("admit: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("admit: %w", err)
		}
		if n == 1 {
			return nil
		}

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM course_applications WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("admit: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("admit: %w", repository.ErrNotFound)
		}
		r.logger.Debug("admission guarded", zap.String("application_id", id))
		return fmt.Errorf("admit: %w", repository.ErrAdmissionConflict)
	})
}

// RecordDecision applies the student's answer only while the offer is still
// admitted.
func (r *SQLiteRepo) RecordDecision(ctx context.Context, id, status, decidedBy string, at time.Time) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE course_applications SET status = ?, decision_at = ?, decision_by = ?, updated = ? WHERE id = ? AND status = ?`,
			status, millis(at), decidedBy, millis(at), id, models.StatusAdmitted)
		if err != nil {
			return fmt.Errorf("record decision: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("record decision: %w", err)
		}
		if n == 1 {
			return nil
		}

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM course_applications WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("record decision: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("record decision: %w", repository.ErrNotFound)
		}
		return fmt.Errorf("record decision: %w", repository.ErrStaleStatus)
	})
}
