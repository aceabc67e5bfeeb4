// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements HTTP handlers for the public site and the
// admin interface: post management, categories, users, authentication
// and the event log.
package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/prosa/internal/middleware"
	"github.com/olegiv/prosa/internal/model"
	"github.com/olegiv/prosa/internal/render"
	"github.com/olegiv/prosa/internal/store"
)

// DashboardStats holds the statistics displayed on the dashboard.
// Post counts are scoped to the author's own posts for author users.
type DashboardStats struct {
	TotalPosts      int64
	PublishedPosts  int64
	DraftPosts      int64
	ArchivedPosts   int64
	TotalUsers      int64
	TotalCategories int64
}

// RecentPost represents a recently updated post for dashboard display.
type RecentPost struct {
	ID         int64
	Title      string
	Status     string
	AuthorName string
	UpdatedAt  string
}

// DashboardData holds all dashboard data including stats and recent items.
type DashboardData struct {
	Stats       DashboardStats
	RecentPosts []RecentPost
}

// AdminHandler handles the admin dashboard.
type AdminHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *AdminHandler {
	return &AdminHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// Dashboard renders the admin dashboard with stats and recent activity.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	ctx := r.Context()

	// Authors only see numbers for their own posts
	var scopeAuthorID int64
	if user != nil && user.Role == model.RoleAuthor {
		scopeAuthorID = user.ID
	}

	stats := DashboardStats{}

	if total, err := h.queries.CountPosts(ctx, scopeAuthorID); err != nil {
		slog.Error("failed to count posts", "error", err)
	} else {
		stats.TotalPosts = total
	}

	for status, target := range map[string]*int64{
		model.PostStatusPublished: &stats.PublishedPosts,
		model.PostStatusDraft:     &stats.DraftPosts,
		model.PostStatusArchived:  &stats.ArchivedPosts,
	} {
		count, err := h.queries.CountPostsByStatus(ctx, store.CountPostsByStatusParams{
			Status:   status,
			AuthorID: scopeAuthorID,
		})
		if err != nil {
			slog.Error("failed to count posts by status", "error", err, "status", status)
			continue
		}
		*target = count
	}

	if userCount, err := h.queries.CountAllUsers(ctx); err != nil {
		slog.Error("failed to count users", "error", err)
	} else {
		stats.TotalUsers = userCount
	}

	if categoryCount, err := h.queries.CountCategories(ctx); err != nil {
		slog.Error("failed to count categories", "error", err)
	} else {
		stats.TotalCategories = categoryCount
	}

	var recentPosts []RecentPost
	if rows, err := h.queries.ListRecentlyUpdatedPosts(ctx, scopeAuthorID, 5); err != nil {
		slog.Error("failed to list recent posts", "error", err)
	} else {
		for _, p := range rows {
			recentPosts = append(recentPosts, RecentPost{
				ID:         p.ID,
				Title:      p.Title,
				Status:     p.Status,
				AuthorName: p.AuthorName,
				UpdatedAt:  p.UpdatedAt.Format("Jan 2, 2006 3:04 PM"),
			})
		}
	}

	dashboardData := DashboardData{
		Stats:       stats,
		RecentPosts: recentPosts,
	}

	if err := h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		User:  user,
		Data:  dashboardData,
	}); err != nil {
		slog.Error("render error", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
