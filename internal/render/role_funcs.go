// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"html/template"
	"reflect"

	"github.com/olegiv/prosa/internal/model"
)

// getUserRole extracts the Role field from a user value via reflection.
// Accepts a struct or pointer to struct with a string Role field.
// Returns empty string for nil, non-struct values, or missing Role field.
func getUserRole(user any) string {
	if user == nil {
		return ""
	}

	v := reflect.ValueOf(user)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return ""
	}

	field := v.FieldByName("Role")
	if !field.IsValid() || field.Kind() != reflect.String {
		return ""
	}

	return field.String()
}

// TemplateFuncs returns role-aware template functions.
// These accept the user value from template data so templates can
// show or hide controls based on the viewer's role.
func (r *Renderer) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"userRole": getUserRole,
		"isAdmin": func(user any) bool {
			return getUserRole(user) == model.RoleAdmin
		},
		"isEditor": func(user any) bool {
			role := getUserRole(user)
			return role == model.RoleAdmin || role == model.RoleEditor
		},
	}
}
