// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `u.id, u.email, u.password_hash, COALESCE(r.role, 'author'), u.name, u.bio, u.avatar_path, u.created_at, u.updated_at, u.last_login_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Name,
		&u.Bio,
		&u.AvatarPath,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

const getUserByID = `
SELECT ` + userColumns + `
FROM users u
LEFT JOIN user_roles r ON r.user_id = u.id
WHERE u.id = ?1
`

// GetUserByID returns the user with the given id, including its role.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `
SELECT ` + userColumns + `
FROM users u
LEFT JOIN user_roles r ON r.user_id = u.id
WHERE u.email = ?1
`

// GetUserByEmail returns the user with the given email, including its role.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsers = `
SELECT ` + userColumns + `
FROM users u
LEFT JOIN user_roles r ON r.user_id = u.id
WHERE (?1 = '' OR u.name LIKE '%' || ?1 || '%' OR u.bio LIKE '%' || ?1 || '%')
  AND (?2 = '' OR COALESCE(r.role, 'author') = ?2)
ORDER BY u.created_at DESC
LIMIT ?3 OFFSET ?4
`

// ListUsersParams filters the user listing. Search matches display name or
// bio, Role filters on the exact role, both skipped when empty.
type ListUsersParams struct {
	Search string
	Role   string
	Limit  int64
	Offset int64
}

// ListUsers returns users matching the filter, newest first.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Search, arg.Role, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.Name,
			&u.Bio,
			&u.AvatarPath,
			&u.CreatedAt,
			&u.UpdatedAt,
			&u.LastLoginAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const countUsers = `
SELECT COUNT(*)
FROM users u
LEFT JOIN user_roles r ON r.user_id = u.id
WHERE (?1 = '' OR u.name LIKE '%' || ?1 || '%' OR u.bio LIKE '%' || ?1 || '%')
  AND (?2 = '' OR COALESCE(r.role, 'author') = ?2)
`

// CountUsersParams mirrors ListUsersParams without paging.
type CountUsersParams struct {
	Search string
	Role   string
}

// CountUsers counts users matching the filter.
func (q *Queries) CountUsers(ctx context.Context, arg CountUsersParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers, arg.Search, arg.Role).Scan(&count)
	return count, err
}

const countAllUsers = `SELECT COUNT(*) FROM users`

// CountAllUsers counts every user account.
func (q *Queries) CountAllUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAllUsers).Scan(&count)
	return count, err
}

const countAdmins = `SELECT COUNT(*) FROM user_roles WHERE role = 'admin'`

// CountAdmins counts users holding the admin role.
func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAdmins).Scan(&count)
	return count, err
}

const createUser = `
INSERT INTO users (email, password_hash, name, bio, avatar_path, created_at, updated_at)
VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7)
RETURNING id, email, password_hash, name, bio, avatar_path, created_at, updated_at, last_login_at
`

// CreateUserParams holds the column values for a new user. The role is
// written separately with UpsertUserRole.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Bio          string
	AvatarPath   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a user and returns the stored row. The returned Role
// is empty until a role row is written.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email, arg.PasswordHash, arg.Name, arg.Bio, arg.AvatarPath, arg.CreatedAt, arg.UpdatedAt)
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Bio,
		&u.AvatarPath,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

const updateUserProfile = `
UPDATE users
SET name = ?1, bio = ?2, avatar_path = ?3, updated_at = ?4
WHERE id = ?5
`

// UpdateUserProfileParams holds editable profile fields.
type UpdateUserProfileParams struct {
	Name       string
	Bio        string
	AvatarPath string
	UpdatedAt  time.Time
	ID         int64
}

// UpdateUserProfile updates a user's display name, bio and avatar.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx, updateUserProfile,
		arg.Name, arg.Bio, arg.AvatarPath, arg.UpdatedAt, arg.ID)
	return err
}

const updateUserPassword = `
UPDATE users
SET password_hash = ?1, updated_at = ?2
WHERE id = ?3
`

// UpdateUserPasswordParams holds a new password hash.
type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const updateUserLastLogin = `
UPDATE users
SET last_login_at = ?1
WHERE id = ?2
`

// UpdateUserLastLoginParams records a successful login time.
type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

// UpdateUserLastLogin records the time of the user's latest login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, arg.LastLoginAt, arg.ID)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?1`

// DeleteUser removes a user; the role row cascades.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

const upsertUserRole = `
INSERT INTO user_roles (user_id, role, created_at, updated_at)
VALUES (?1, ?2, ?3, ?3)
ON CONFLICT(user_id) DO UPDATE SET role = excluded.role, updated_at = excluded.updated_at
`

// UpsertUserRoleParams assigns a role to a user.
type UpsertUserRoleParams struct {
	UserID    int64
	Role      string
	UpdatedAt time.Time
}

// UpsertUserRole assigns a role in a single statement. The UNIQUE
// constraint on user_id guarantees exactly one role row per user after
// reassignment.
func (q *Queries) UpsertUserRole(ctx context.Context, arg UpsertUserRoleParams) error {
	_, err := q.db.ExecContext(ctx, upsertUserRole, arg.UserID, arg.Role, arg.UpdatedAt)
	return err
}

const getUserRole = `
SELECT COALESCE((SELECT role FROM user_roles WHERE user_id = ?1), 'author')
`

// GetUserRole returns the user's role, defaulting to author when no role
// row exists.
func (q *Queries) GetUserRole(ctx context.Context, userID int64) (string, error) {
	var role string
	err := q.db.QueryRowContext(ctx, getUserRole, userID).Scan(&role)
	return role, err
}
