// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Category types
const (
	CategoryTypeNews         = "news"
	CategoryTypeMotivational = "motivational"
	CategoryTypeCuriosity    = "curiosity"
)

// CategoryTypes lists the valid category types.
var CategoryTypes = []string{CategoryTypeNews, CategoryTypeMotivational, CategoryTypeCuriosity}

// IsValidCategoryType reports whether t names a known category type.
func IsValidCategoryType(t string) bool {
	for _, ct := range CategoryTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// CategoryColors is the palette available to categories. The badge shown
// next to a post on the public site uses the category's color.
var CategoryColors = []string{
	"#EF4444", "#F59E0B", "#10B981", "#3B82F6",
	"#8B5CF6", "#EC4899", "#06B6D4", "#84CC16",
}

// IsValidCategoryColor reports whether color belongs to the palette.
func IsValidCategoryColor(color string) bool {
	for _, c := range CategoryColors {
		if c == color {
			return true
		}
	}
	return false
}
