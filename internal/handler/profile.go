// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/olegiv/prosa/internal/auth"
	"github.com/olegiv/prosa/internal/imaging"
	"github.com/olegiv/prosa/internal/middleware"
	"github.com/olegiv/prosa/internal/render"
	"github.com/olegiv/prosa/internal/store"
)

// maxAvatarUploadSize limits avatar uploads to 5 MB.
const maxAvatarUploadSize = 5 << 20

// ProfileHandler handles the current user's profile routes.
type ProfileHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	processor      *imaging.Processor
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, processor *imaging.Processor) *ProfileHandler {
	return &ProfileHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		processor:      processor,
	}
}

// ProfileFormData holds data for the profile template.
type ProfileFormData struct {
	User       *store.User
	Errors     map[string]string
	FormValues map[string]string
}

// Show handles GET /admin/profile - displays the profile form.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	data := ProfileFormData{
		User:   user,
		Errors: make(map[string]string),
		FormValues: map[string]string{
			"name": user.Name,
			"bio":  user.Bio,
		},
	}
	h.renderProfile(w, r, data)
}

// Update handles POST /admin/profile - updates name, bio and avatar.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(maxAvatarUploadSize); err != nil {
		flashError(w, r, h.renderer, redirectAdminProfile, "Invalid form data")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	bio := strings.TrimSpace(r.FormValue("bio"))

	formValues := map[string]string{
		"name": name,
		"bio":  bio,
	}

	validationErrors := make(map[string]string)
	if name == "" {
		validationErrors["name"] = "Name is required"
	} else if len(name) < 2 {
		validationErrors["name"] = "Name must be at least 2 characters"
	}

	avatarPath := user.AvatarPath

	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer func() { _ = file.Close() }()

		avatarID := uuid.New().String()
		result, procErr := h.processor.ProcessAvatar(file, avatarID, header.Filename)
		if procErr != nil {
			slog.Warn("avatar processing failed", "error", procErr, "user_id", user.ID)
			validationErrors["avatar"] = "Could not process image (JPEG, PNG or WebP only)"
		} else {
			avatarPath = result.FilePath
		}
	}

	if len(validationErrors) > 0 {
		data := ProfileFormData{
			User:       user,
			Errors:     validationErrors,
			FormValues: formValues,
		}
		h.renderProfile(w, r, data)
		return
	}

	if err := h.queries.UpdateUserProfile(r.Context(), store.UpdateUserProfileParams{
		Name:       name,
		Bio:        bio,
		AvatarPath: avatarPath,
		UpdatedAt:  time.Now(),
		ID:         user.ID,
	}); err != nil {
		slog.Error("failed to update profile", "error", err, "user_id", user.ID)
		flashError(w, r, h.renderer, redirectAdminProfile, "Error updating profile")
		return
	}

	// Remove the previous avatar files once the new path is stored
	if avatarPath != user.AvatarPath && user.AvatarPath != "" {
		if err := h.processor.DeleteAvatarByPath(user.AvatarPath); err != nil {
			slog.Warn("failed to delete old avatar", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("profile updated", "user_id", user.ID)
	flashSuccess(w, r, h.renderer, redirectAdminProfile, "Profile updated successfully")
}

// ChangePassword handles POST /admin/profile/password.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminProfile) {
		return
	}

	current := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	valid, err := auth.CheckPassword(current, user.PasswordHash)
	if err != nil || !valid {
		flashError(w, r, h.renderer, redirectAdminProfile, "Current password is incorrect")
		return
	}

	if len(newPassword) < 8 {
		flashError(w, r, h.renderer, redirectAdminProfile, "Password must be at least 8 characters")
		return
	}
	if newPassword != confirm {
		flashError(w, r, h.renderer, redirectAdminProfile, "Passwords do not match")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		flashError(w, r, h.renderer, redirectAdminProfile, "Error changing password")
		return
	}

	if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    time.Now(),
		ID:           user.ID,
	}); err != nil {
		slog.Error("failed to update password", "error", err, "user_id", user.ID)
		flashError(w, r, h.renderer, redirectAdminProfile, "Error changing password")
		return
	}

	slog.Info("password changed", "user_id", user.ID)
	flashSuccess(w, r, h.renderer, redirectAdminProfile, "Password changed successfully")
}

// renderProfile renders the profile form with the given data.
func (h *ProfileHandler) renderProfile(w http.ResponseWriter, r *http.Request, data ProfileFormData) {
	if err := h.renderer.Render(w, r, "admin/profile", render.TemplateData{
		Title: "Profile",
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render profile", "error", err)
	}
}
