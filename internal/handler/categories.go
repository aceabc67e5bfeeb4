// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/prosa/internal/middleware"
	"github.com/olegiv/prosa/internal/model"
	"github.com/olegiv/prosa/internal/render"
	"github.com/olegiv/prosa/internal/service"
	"github.com/olegiv/prosa/internal/store"
	"github.com/olegiv/prosa/internal/util"
)

// CategoriesHandler handles category management routes.
type CategoriesHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewCategoriesHandler creates a new CategoriesHandler.
func NewCategoriesHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *CategoriesHandler {
	return &CategoriesHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// CategoriesListData holds data for the categories list template.
type CategoriesListData struct {
	Categories []store.Category
	Types      []string
	Colors     []string
	Errors     map[string]string
	FormValues map[string]string
}

// List handles GET /admin/categories - displays all categories with the
// inline create form.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, nil, nil)
}

// Create handles POST /admin/categories - creates a new category.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	catType := r.FormValue("type")
	color := r.FormValue("color")

	formValues := map[string]string{
		"name":        name,
		"description": description,
		"type":        catType,
		"color":       color,
	}

	// The slug is derived from the name on create. Diacritics fold to
	// ASCII, so "Saúde" and "saude" produce the same slug.
	slug := util.Slugify(name)

	validationErrors := h.validateCategory(name, catType, color)
	if validationErrors["name"] == "" {
		if msg := ValidateSlugWithChecker(slug, func() (bool, error) {
			return h.queries.CategorySlugExists(r.Context(), slug)
		}); msg != "" {
			validationErrors["name"] = msg
		}
	}

	if len(validationErrors) > 0 {
		h.renderList(w, r, validationErrors, formValues)
		return
	}

	category, err := h.queries.CreateCategory(r.Context(), store.CreateCategoryParams{
		Name:        name,
		Slug:        slug,
		Description: description,
		Type:        catType,
		Color:       color,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		slog.Error("failed to create category", "error", err)
		flashError(w, r, h.renderer, redirectAdminCategories, "Error creating category")
		return
	}

	slog.Info("category created", "category_id", category.ID, "slug", category.Slug, "created_by", middleware.GetUserID(r))
	_ = h.eventService.LogCategoryEvent(r.Context(), model.EventLevelInfo, "Category created: "+category.Name,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path, map[string]any{"category_id": category.ID})

	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category created successfully")
}

// CategoryFormData holds data for the category edit template.
type CategoryFormData struct {
	Category   store.Category
	Types      []string
	Colors     []string
	Errors     map[string]string
	FormValues map[string]string
}

// EditForm handles GET /admin/categories/{id} - displays the edit form.
func (h *CategoriesHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}

	category, ok := h.requireCategoryWithRedirect(w, r, id)
	if !ok {
		return
	}

	data := CategoryFormData{
		Category: category,
		Types:    model.CategoryTypes,
		Colors:   model.CategoryColors,
		Errors:   make(map[string]string),
		FormValues: map[string]string{
			"name":        category.Name,
			"slug":        category.Slug,
			"description": category.Description,
			"type":        category.Type,
			"color":       category.Color,
		},
	}
	h.renderEditForm(w, r, data)
}

// Update handles POST /admin/categories/{id} - updates a category.
// Renaming keeps the stored slug so published URLs stay stable. The slug
// only changes when the slug field itself is edited.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}

	category, ok := h.requireCategoryWithRedirect(w, r, id)
	if !ok {
		return
	}

	editURL := fmt.Sprintf(redirectAdminCategoriesID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	catType := r.FormValue("type")
	color := r.FormValue("color")

	slug := util.Slugify(r.FormValue("slug"))
	if slug == "" {
		slug = category.Slug
	}

	formValues := map[string]string{
		"name":        name,
		"slug":        slug,
		"description": description,
		"type":        catType,
		"color":       color,
	}

	validationErrors := h.validateCategory(name, catType, color)
	if validationErrors["slug"] == "" && slug != category.Slug {
		taken, err := h.queries.CategorySlugExistsExcluding(r.Context(), store.CategorySlugExistsExcludingParams{
			Slug: slug,
			ID:   id,
		})
		if err != nil {
			slog.Error("failed to check category slug", "error", err)
			flashError(w, r, h.renderer, editURL, "Error updating category")
			return
		}
		if taken {
			validationErrors["slug"] = "Slug is already in use"
		}
	}

	if len(validationErrors) > 0 {
		data := CategoryFormData{
			Category:   category,
			Types:      model.CategoryTypes,
			Colors:     model.CategoryColors,
			Errors:     validationErrors,
			FormValues: formValues,
		}
		h.renderEditForm(w, r, data)
		return
	}

	updated, err := h.queries.UpdateCategory(r.Context(), store.UpdateCategoryParams{
		Name:        name,
		Slug:        slug,
		Description: description,
		Type:        catType,
		Color:       color,
		UpdatedAt:   time.Now(),
		ID:          id,
	})
	if err != nil {
		slog.Error("failed to update category", "error", err, "category_id", id)
		flashError(w, r, h.renderer, editURL, "Error updating category")
		return
	}

	slog.Info("category updated", "category_id", id, "updated_by", middleware.GetUserID(r))
	_ = h.eventService.LogCategoryEvent(r.Context(), model.EventLevelInfo, "Category updated: "+updated.Name,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path, map[string]any{"category_id": id})

	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category updated successfully")
}

// Delete handles DELETE /admin/categories/{id} - deletes a category.
// Posts in the category keep existing with no category.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}

	category, ok := h.requireCategoryWithRedirect(w, r, id)
	if !ok {
		return
	}

	if err := h.queries.DeleteCategory(r.Context(), id); err != nil {
		slog.Error("failed to delete category", "error", err, "category_id", id)
		flashError(w, r, h.renderer, redirectAdminCategories, "Error deleting category")
		return
	}

	slog.Info("category deleted", "category_id", id, "slug", category.Slug, "deleted_by", middleware.GetUserID(r))
	_ = h.eventService.LogCategoryEvent(r.Context(), model.EventLevelInfo, "Category deleted: "+category.Name,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path, map[string]any{"category_id": id})

	if r.Header.Get("HX-Request") == "true" {
		w.WriteHeader(http.StatusOK)
		return
	}

	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category deleted successfully")
}

// validateCategory checks the shared create/update fields.
func (h *CategoriesHandler) validateCategory(name, catType, color string) map[string]string {
	validationErrors := make(map[string]string)

	if name == "" {
		validationErrors["name"] = "Name is required"
	}

	if catType == "" {
		validationErrors["type"] = "Type is required"
	} else if !model.IsValidCategoryType(catType) {
		validationErrors["type"] = "Invalid category type"
	}

	if color == "" {
		validationErrors["color"] = "Color is required"
	} else if !model.IsValidCategoryColor(color) {
		validationErrors["color"] = "Color must be one of the palette colors"
	}

	return validationErrors
}

// requireCategoryWithRedirect fetches a category by ID and redirects with flash on error.
func (h *CategoriesHandler) requireCategoryWithRedirect(w http.ResponseWriter, r *http.Request, id int64) (store.Category, bool) {
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminCategories, "category", id,
		func(id int64) (store.Category, error) { return h.queries.GetCategoryByID(r.Context(), id) })
}

// renderList renders the categories list with the inline create form.
func (h *CategoriesHandler) renderList(w http.ResponseWriter, r *http.Request, validationErrors, formValues map[string]string) {
	user := middleware.GetUser(r)

	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}

	if validationErrors == nil {
		validationErrors = make(map[string]string)
	}
	if formValues == nil {
		formValues = make(map[string]string)
	}

	data := CategoriesListData{
		Categories: categories,
		Types:      model.CategoryTypes,
		Colors:     model.CategoryColors,
		Errors:     validationErrors,
		FormValues: formValues,
	}

	if err := h.renderer.Render(w, r, "admin/categories_list", render.TemplateData{
		Title: "Categories",
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render categories list", "error", err)
	}
}

// renderEditForm renders the category edit form.
func (h *CategoriesHandler) renderEditForm(w http.ResponseWriter, r *http.Request, data CategoryFormData) {
	user := middleware.GetUser(r)

	if err := h.renderer.Render(w, r, "admin/categories_form", render.TemplateData{
		Title: "Edit Category",
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render category form", "error", err)
	}
}
