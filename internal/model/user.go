// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds the domain vocabulary shared across packages:
// post statuses and their lifecycle, user roles, category types and
// colors, and event levels and categories.
package model

// User roles, in descending order of privilege.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleAuthor = "author"
)

// DefaultRole is assumed for users without an explicit role row.
const DefaultRole = RoleAuthor

// ValidRoles lists the assignable user roles.
var ValidRoles = []string{RoleAdmin, RoleEditor, RoleAuthor}

// IsValidRole reports whether role is one of the assignable roles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
