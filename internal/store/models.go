// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is a users row joined with its role. A user without a role row
// resolves to the "author" role in every query that selects users.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	Name         string
	Bio          string
	AvatarPath   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// Post is a posts row.
type Post struct {
	ID          int64
	Title       string
	Slug        string
	Excerpt     string
	Body        string
	Status      string
	Featured    bool
	AuthorID    int64
	CategoryID  sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
	ScheduledAt sql.NullTime
}

// Category is a categories row.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Type        string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is an events row.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}
