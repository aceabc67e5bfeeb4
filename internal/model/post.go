// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// PostStatuses lists the valid post statuses in lifecycle order.
var PostStatuses = []string{PostStatusDraft, PostStatusPublished, PostStatusArchived}

// IsValidPostStatus reports whether status names a known post status.
func IsValidPostStatus(status string) bool {
	for _, s := range PostStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether a post may move from one status to another.
// Drafts may be published or archived, published posts may be archived,
// and archived is terminal.
func CanTransition(from, to string) bool {
	switch from {
	case PostStatusDraft:
		return to == PostStatusPublished || to == PostStatusArchived
	case PostStatusPublished:
		return to == PostStatusArchived
	default:
		return false
	}
}
