package sqlite

import (
	"context"
	"fmt"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

const userColumns = `id, email, name, role, password_hash, is_verified, verification_code, status, created, updated`

func scanUser(s scanner) (models.User, error) {
	var (
		u                models.User
		role             string
		verified         int
		created, updated int64
	)
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &verified, &u.VerificationCode, &u.Status, &created, &updated); err != nil {
		return u, err
	}
	u.Role = models.Role(role)
	u.IsVerified = verified != 0
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if u.Status == "" {
		u.Status = models.UserActive
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash, boolInt(u.IsVerified), u.VerificationCode, u.Status, millis(u.CreatedAt), millis(u.UpdatedAt))
	if err != nil {
		return insertErr("create user", err)
	}
	return nil
}

func (r *SQLiteRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	return queryOne(ctx, r, "get user", scanUser, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail matches case-insensitively.
func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return queryOne(ctx, r, "get user by email", scanUser, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
}

func (r *SQLiteRepo) UpdateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	u.UpdatedAt = now()

	res, err := r.conn.Exec(ctx, `UPDATE users SET email = ?, name = ?, role = ?, password_hash = ?, is_verified = ?, verification_code = ?, status = ?, updated = ? WHERE id = ?`,
		u.Email, u.Name, string(u.Role), u.PasswordHash, boolInt(u.IsVerified), u.VerificationCode, u.Status, millis(u.UpdatedAt), u.ID)
	if err != nil {
		return insertErr("update user", err)
	}
	return affected("update user", res)
}

func (r *SQLiteRepo) DeleteUser(ctx context.Context, id string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ListUsers returns every user when role is empty.
func (r *SQLiteRepo) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	return queryAll(ctx, r, "list users", scanUser,
		`SELECT `+userColumns+` FROM users WHERE (? = '' OR role = ?) ORDER BY created, rowid`, string(role), string(role))
}
