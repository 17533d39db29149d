package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/model"
)

const userColumns = `id, username, password_hash, role, created_at, deleted_at`

// CreateUser creates a new user.
func CreateUser(ctx context.Context, q sqlx.ExtContext, username, passwordHash, role string) (*model.User, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q sqlx.ExtContext, id int64) (*model.User, error) {
	return getUser(ctx, q, "getting user", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByUsername returns the active user with the given username, or the
// most recently deleted one so login can report it as disabled.
func GetUserByUsername(ctx context.Context, q sqlx.ExtContext, username string) (*model.User, error) {
	return getUser(ctx, q, "getting user by username",
		`SELECT `+userColumns+` FROM users WHERE username = ?
		 ORDER BY CASE WHEN deleted_at IS NULL THEN 0 ELSE 1 END, id DESC LIMIT 1`, username)
}

func getUser(ctx context.Context, q sqlx.ExtContext, op, query string, args ...any) (*model.User, error) {
	u := &model.User{}
	err := sqlx.GetContext(ctx, q, u, q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, q sqlx.ExtContext) ([]model.User, error) {
	var users []model.User
	err := sqlx.SelectContext(ctx, q, &users,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// UpdateUser updates a user's role.
func UpdateUser(ctx context.Context, q sqlx.ExtContext, id int64, role string) error {
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET role = ? WHERE id = ? AND deleted_at IS NULL`),
		role, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q sqlx.ExtContext, id int64, passwordHash string) error {
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`),
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating user password: user %d not found", id)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, q sqlx.ExtContext, id int64) error {
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`),
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("deleting user: user %d not found", id)
	}
	return nil
}
