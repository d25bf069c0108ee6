package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/omara/internal/model"
)

// ErrUserNotFound is returned by user updates that match no active account.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, username, password_hash, role, created_at, deleted_at`

func usersDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "sqlite")
}

// CreateUser adds an account and returns it as stored.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user %s: %w", username, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("creating user %s: %w", username, err)
	}
	return GetUser(ctx, db, id)
}

// GetUser returns the account with the given id, deleted or not, or nil.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := getUser(ctx, db, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername returns the account signing in under username, or nil.
// A deleted account is returned only when no active one has the name, so
// the caller can tell a removed account from an unknown one.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u, err := getUser(ctx, db,
		`SELECT `+userColumns+` FROM users WHERE username = ?
		 ORDER BY deleted_at IS NOT NULL, id DESC LIMIT 1`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", username, err)
	}
	return u, nil
}

func getUser(ctx context.Context, db *sql.DB, query string, args ...any) (*model.User, error) {
	u := &model.User{}
	err := usersDB(db).GetContext(ctx, u, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns the active accounts in creation order.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	users := []model.User{}
	err := usersDB(db).SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// CountAdmins returns the number of active admins.
func CountAdmins(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := usersDB(db).GetContext(ctx, &n,
		`SELECT COUNT(*) FROM users WHERE role = ? AND deleted_at IS NULL`, model.RoleAdmin,
	)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// UpdateUser changes an active account's role.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, role string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	return updateActiveUser(ctx, db, id, `role = ?`, role)
}

// UpdateUserPassword replaces an active account's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	return updateActiveUser(ctx, db, id, `password_hash = ?`, passwordHash)
}

// DeleteUser soft-deletes an account. Its username becomes free again.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	return updateActiveUser(ctx, db, id, `deleted_at = CURRENT_TIMESTAMP`)
}

// updateActiveUser applies set to the active account id and reports
// ErrUserNotFound when there is none.
func updateActiveUser(ctx context.Context, db *sql.DB, id int64, set string, args ...any) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET `+set+` WHERE id = ? AND deleted_at IS NULL`,
		append(args, id)...,
	)
	if err != nil {
		return fmt.Errorf("updating user %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating user %d: %w", id, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
