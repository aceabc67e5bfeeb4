// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/prosa/internal/auth"
	"github.com/olegiv/prosa/internal/middleware"
	"github.com/olegiv/prosa/internal/model"
	"github.com/olegiv/prosa/internal/render"
	"github.com/olegiv/prosa/internal/service"
	"github.com/olegiv/prosa/internal/store"
)

// UsersPerPage is the number of users to display per page.
const UsersPerPage = 10

// UsersHandler handles user management routes. Every route here is
// mounted behind the admin-only middleware.
type UsersHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *UsersHandler {
	return &UsersHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// UsersListData holds data for the users list template.
type UsersListData struct {
	Users         []store.User
	CurrentUserID int64
	Search        string
	RoleFilter    string
	Roles         []string
	TotalUsers    int64
	Pagination    AdminPagination
}

// List handles GET /admin/users - displays a paginated, filterable user list.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	role := r.URL.Query().Get("role")
	if !model.IsValidRole(role) {
		role = ""
	}

	page := ParsePageParam(r)

	totalUsers, err := h.queries.CountUsers(r.Context(), store.CountUsersParams{
		Search: search,
		Role:   role,
	})
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}

	page, _ = NormalizePagination(page, int(totalUsers), UsersPerPage)
	offset := int64((page - 1) * UsersPerPage)

	users, err := h.queries.ListUsers(r.Context(), store.ListUsersParams{
		Search: search,
		Role:   role,
		Limit:  UsersPerPage,
		Offset: offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}

	data := UsersListData{
		Users:         users,
		CurrentUserID: middleware.GetUserID(r),
		Search:        search,
		RoleFilter:    role,
		Roles:         model.ValidRoles,
		TotalUsers:    totalUsers,
		Pagination:    BuildAdminPagination(page, int(totalUsers), UsersPerPage, redirectAdminUsers, r.URL.Query()),
	}

	if err := h.renderer.Render(w, r, "admin/users_list", render.TemplateData{
		Title: "Users",
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render users list", "error", err)
	}
}

// UserFormData holds data for the user form template.
type UserFormData struct {
	User       *store.User
	Roles      []string
	Errors     map[string]string
	FormValues map[string]string
	IsEdit     bool
}

// NewForm handles GET /admin/users/new - displays the new user form.
func (h *UsersHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	data := UserFormData{
		Roles:      model.ValidRoles,
		Errors:     make(map[string]string),
		FormValues: make(map[string]string),
		IsEdit:     false,
	}
	h.renderUserForm(w, r, "New User", data)
}

// Create handles POST /admin/users - creates a new user with a role.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsersNew) {
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	password := r.FormValue("password")
	passwordConfirm := r.FormValue("password_confirm")
	role := r.FormValue("role")

	formValues := map[string]string{
		"email": email,
		"name":  name,
		"role":  role,
	}

	validationErrors := make(map[string]string)

	if email == "" {
		validationErrors["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		validationErrors["email"] = "Invalid email format"
	} else {
		_, err := h.queries.GetUserByEmail(r.Context(), email)
		if err == nil {
			validationErrors["email"] = "Email already exists"
		} else if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("database error checking email", "error", err)
			validationErrors["email"] = "Error checking email"
		}
	}

	if name == "" {
		validationErrors["name"] = "Name is required"
	} else if len(name) < 2 {
		validationErrors["name"] = "Name must be at least 2 characters"
	}

	if password == "" {
		validationErrors["password"] = "Password is required"
	} else if len(password) < 8 {
		validationErrors["password"] = "Password must be at least 8 characters"
	} else if password != passwordConfirm {
		validationErrors["password_confirm"] = "Passwords do not match"
	}

	if role == "" {
		validationErrors["role"] = "Role is required"
	} else if !model.IsValidRole(role) {
		validationErrors["role"] = "Invalid role"
	}

	if len(validationErrors) > 0 {
		data := UserFormData{
			Roles:      model.ValidRoles,
			Errors:     validationErrors,
			FormValues: formValues,
			IsEdit:     false,
		}
		h.renderUserForm(w, r, "New User", data)
		return
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		flashError(w, r, h.renderer, redirectAdminUsersNew, "Error creating user")
		return
	}

	now := time.Now()
	newUser, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		flashError(w, r, h.renderer, redirectAdminUsersNew, "Error creating user")
		return
	}

	if err := h.queries.UpsertUserRole(r.Context(), store.UpsertUserRoleParams{
		UserID:    newUser.ID,
		Role:      role,
		UpdatedAt: now,
	}); err != nil {
		slog.Error("failed to assign role", "error", err, "user_id", newUser.ID)
		flashError(w, r, h.renderer, redirectAdminUsers, "User created but role assignment failed")
		return
	}

	slog.Info("user created", "user_id", newUser.ID, "email", newUser.Email, "role", role, "created_by", middleware.GetUserID(r))
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User created: "+newUser.Email,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"new_user_id": newUser.ID, "role": role})

	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User created successfully")
}

// EditForm handles GET /admin/users/{id} - displays the edit user form.
func (h *UsersHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}

	editUser, ok := h.requireUserWithRedirect(w, r, id)
	if !ok {
		return
	}

	data := UserFormData{
		User:   &editUser,
		Roles:  model.ValidRoles,
		Errors: make(map[string]string),
		FormValues: map[string]string{
			"email": editUser.Email,
			"name":  editUser.Name,
			"role":  editUser.Role,
		},
		IsEdit: true,
	}
	h.renderUserForm(w, r, "Edit User", data)
}

// Update handles POST /admin/users/{id} - changes a user's role.
// The assignment is a single upsert, so the user ends up with exactly
// one role row no matter what they had before.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	currentUserID := middleware.GetUserID(r)

	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}

	editUser, ok := h.requireUserWithRedirect(w, r, id)
	if !ok {
		return
	}

	editURL := fmt.Sprintf(redirectAdminUsersID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	role := r.FormValue("role")

	validationErrors := make(map[string]string)
	if role == "" {
		validationErrors["role"] = "Role is required"
	} else if !model.IsValidRole(role) {
		validationErrors["role"] = "Invalid role"
	}

	// Demoting yourself out of admin is only allowed when another admin exists
	if len(validationErrors) == 0 && currentUserID == id && editUser.Role == model.RoleAdmin && role != model.RoleAdmin {
		adminCount, err := h.queries.CountAdmins(r.Context())
		if err != nil {
			slog.Error("failed to count admins", "error", err)
			validationErrors["role"] = "Error checking admin count"
		} else if adminCount <= 1 {
			validationErrors["role"] = "Cannot demote the last admin"
		}
	}

	if len(validationErrors) > 0 {
		data := UserFormData{
			User:   &editUser,
			Roles:  model.ValidRoles,
			Errors: validationErrors,
			FormValues: map[string]string{
				"email": editUser.Email,
				"name":  editUser.Name,
				"role":  role,
			},
			IsEdit: true,
		}
		h.renderUserForm(w, r, "Edit User", data)
		return
	}

	if err := h.queries.UpsertUserRole(r.Context(), store.UpsertUserRoleParams{
		UserID:    id,
		Role:      role,
		UpdatedAt: time.Now(),
	}); err != nil {
		slog.Error("failed to update role", "error", err, "user_id", id)
		flashError(w, r, h.renderer, editURL, "Error updating user")
		return
	}

	slog.Info("user role changed", "user_id", id, "from", editUser.Role, "to", role, "changed_by", currentUserID)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User role changed: "+editUser.Email,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"target_user_id": id, "from": editUser.Role, "to": role})

	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User updated successfully")
}

// Delete handles DELETE /admin/users/{id} - deletes a user.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	currentUserID := middleware.GetUserID(r)

	id, err := ParseIDParam(r)
	if err != nil {
		h.sendDeleteError(w, "Invalid user ID")
		return
	}

	if currentUserID == id {
		h.sendDeleteError(w, "Cannot delete your own account")
		return
	}

	deleteUser, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.sendDeleteError(w, "User not found")
		} else {
			slog.Error("failed to get user", "error", err)
			h.sendDeleteError(w, "Error loading user")
		}
		return
	}

	if deleteUser.Role == model.RoleAdmin {
		adminCount, err := h.queries.CountAdmins(r.Context())
		if err != nil {
			slog.Error("failed to count admins", "error", err)
			h.sendDeleteError(w, "Error checking admin count")
			return
		}
		if adminCount <= 1 {
			h.sendDeleteError(w, "Cannot delete the last admin")
			return
		}
	}

	if err := h.queries.DeleteUser(r.Context(), id); err != nil {
		slog.Error("failed to delete user", "error", err)
		h.sendDeleteError(w, "Error deleting user")
		return
	}

	slog.Info("user deleted", "user_id", id, "email", deleteUser.Email, "deleted_by", currentUserID)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User deleted: "+deleteUser.Email,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"deleted_user_id": id})

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Trigger", `{"showToast": "User deleted successfully"}`)
		w.WriteHeader(http.StatusOK)
		return
	}

	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User deleted successfully")
}

// sendDeleteError sends an error response for delete operations.
func (h *UsersHandler) sendDeleteError(w http.ResponseWriter, message string) {
	w.Header().Set("HX-Reswap", "none")
	w.Header().Set("HX-Trigger", `{"showToast": "`+message+`", "toastType": "error"}`)
	w.WriteHeader(http.StatusBadRequest)
}

// requireUserWithRedirect fetches a user by ID and redirects with flash on error.
func (h *UsersHandler) requireUserWithRedirect(w http.ResponseWriter, r *http.Request, id int64) (store.User, bool) {
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminUsers, "user", id,
		func(id int64) (store.User, error) { return h.queries.GetUserByID(r.Context(), id) })
}

// renderUserForm renders the user form with the given data.
func (h *UsersHandler) renderUserForm(w http.ResponseWriter, r *http.Request, title string, data UserFormData) {
	user := middleware.GetUser(r)

	if err := h.renderer.Render(w, r, "admin/users_form", render.TemplateData{
		Title: title,
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render user form", "error", err)
	}
}
