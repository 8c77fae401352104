package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

const notificationColumns = `id, student_id, type, title, message, job_id, is_read, read_at, created, updated`

func scanNotification(s scanner) (models.Notification, error) {
	var (
		n                models.Notification
		read             int
		readAt           sql.NullInt64
		created, updated int64
	)
	if err := s.Scan(&n.ID, &n.StudentID, &n.Type, &n.Title, &n.Message, &n.JobID, &read, &readAt, &created, &updated); err != nil {
		return n, err
	}
	n.Read = read != 0
	n.ReadAt = fromNullMillis(readAt)
	n.CreatedAt = fromMillis(created)
	n.UpdatedAt = fromMillis(updated)
	return n, nil
}

func (r *SQLiteRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n == nil {
		return fmt.Errorf("notification is nil")
	}
	stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)

	_, err := r.conn.Exec(ctx, `INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.StudentID, n.Type, n.Title, n.Message, n.JobID, boolInt(n.Read), nullMillis(n.ReadAt), millis(n.CreatedAt), millis(n.UpdatedAt))
	if err != nil {
		return insertErr("create notification", err)
	}
	return nil
}

func (r *SQLiteRepo) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	return queryOne(ctx, r, "get notification", scanNotification, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
}

// ListNotifications returns newest first; limit <= 0 returns everything.
func (r *SQLiteRepo) ListNotifications(ctx context.Context, studentID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	return queryAll(ctx, r, "list notifications", scanNotification,
		`SELECT `+notificationColumns+` FROM notifications WHERE student_id = ? AND (? = 0 OR is_read = 0)
		ORDER BY created DESC, rowid DESC LIMIT ?`, studentID, boolInt(unreadOnly), limit)
}

func (r *SQLiteRepo) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	res, err := r.conn.Exec(ctx, `UPDATE notifications SET is_read = 1, read_at = ?, updated = ? WHERE id = ?`, millis(at), millis(at), id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return affected("mark notification read", res)
}
