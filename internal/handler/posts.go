// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
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

// PostsPerPage is the number of posts shown per admin listing page.
const PostsPerPage = 20

// scheduledAtLayout is the datetime-local input format used by the editor form.
const scheduledAtLayout = "2006-01-02T15:04"

// PostsHandler handles admin post management routes.
type PostsHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *PostsHandler {
	return &PostsHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// PostsListData holds data for the posts list template.
type PostsListData struct {
	Posts        []store.AdminPostRow
	Search       string
	StatusFilter string
	Statuses     []string
	TotalPosts   int64
	Pagination   AdminPagination
}

// List handles GET /admin/posts - displays a paginated, filterable post list.
// Authors see only their own posts; editors and admins see everything.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	status := r.URL.Query().Get("status")
	if !model.IsValidPostStatus(status) {
		status = ""
	}

	// Authors are scoped to their own posts in the query itself.
	var scopeAuthorID int64
	if user != nil && user.Role == model.RoleAuthor {
		scopeAuthorID = user.ID
	}

	page := ParsePageParam(r)

	total, err := h.queries.CountAdminPosts(r.Context(), store.CountAdminPostsParams{
		AuthorID: scopeAuthorID,
		Search:   search,
		Status:   status,
	})
	if err != nil {
		logAndInternalError(w, "failed to count posts", "error", err)
		return
	}

	page, _ = NormalizePagination(page, int(total), PostsPerPage)
	offset := int64((page - 1) * PostsPerPage)

	posts, err := h.queries.ListAdminPosts(r.Context(), store.ListAdminPostsParams{
		AuthorID: scopeAuthorID,
		Search:   search,
		Status:   status,
		Limit:    PostsPerPage,
		Offset:   offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	data := PostsListData{
		Posts:        posts,
		Search:       search,
		StatusFilter: status,
		Statuses:     model.PostStatuses,
		TotalPosts:   total,
		Pagination:   BuildAdminPagination(page, int(total), PostsPerPage, redirectAdminPosts, r.URL.Query()),
	}

	if err := h.renderer.Render(w, r, "admin/posts_list", render.TemplateData{
		Title: "Posts",
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render posts list", "error", err)
	}
}

// PostFormData holds data for the post editor template.
type PostFormData struct {
	Post       *store.Post
	Categories []store.Category
	Errors     map[string]string
	FormValues map[string]string
	IsEdit     bool
}

// NewForm handles GET /admin/posts/new - displays the post editor for a new draft.
func (h *PostsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	data := PostFormData{
		Errors:     make(map[string]string),
		FormValues: make(map[string]string),
		IsEdit:     false,
	}
	h.renderPostForm(w, r, "New Post", data)
}

// Create handles POST /admin/posts - creates a new draft post.
// New posts always start as drafts and are never featured.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPostsNew) {
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	slug := strings.TrimSpace(r.FormValue("slug"))
	excerpt := strings.TrimSpace(r.FormValue("excerpt"))
	body := r.FormValue("body")
	categoryIDStr := r.FormValue("category_id")
	scheduledAtStr := r.FormValue("scheduled_at")

	// Generate slug from title if not provided
	if slug == "" && title != "" {
		slug = util.Slugify(title)
	}

	formValues := map[string]string{
		"title":        title,
		"slug":         slug,
		"excerpt":      excerpt,
		"body":         body,
		"category_id":  categoryIDStr,
		"scheduled_at": scheduledAtStr,
	}

	validationErrors := make(map[string]string)

	// Title must be non-empty before anything is written
	if title == "" {
		validationErrors["title"] = "Title is required"
	}

	if msg := ValidateSlugWithChecker(slug, func() (bool, error) {
		return h.queries.PostSlugExists(r.Context(), slug)
	}); msg != "" {
		validationErrors["slug"] = msg
	}

	categoryID, catErr := parseCategoryID(r.Context(), h.queries, categoryIDStr)
	if catErr != "" {
		validationErrors["category_id"] = catErr
	}

	scheduledAt, schedErr := parseScheduledAt(scheduledAtStr)
	if schedErr != "" {
		validationErrors["scheduled_at"] = schedErr
	}

	if len(validationErrors) > 0 {
		data := PostFormData{
			Errors:     validationErrors,
			FormValues: formValues,
			IsEdit:     false,
		}
		h.renderPostForm(w, r, "New Post", data)
		return
	}

	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:       title,
		Slug:        slug,
		Excerpt:     excerpt,
		Body:        body,
		AuthorID:    user.ID,
		CategoryID:  categoryID,
		CreatedAt:   time.Now(),
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		slog.Error("failed to create post", "error", err)
		flashError(w, r, h.renderer, redirectAdminPostsNew, "Error creating post")
		return
	}

	slog.Info("post created", "post_id", post.ID, "slug", post.Slug, "author_id", user.ID)
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post created: "+post.Title,
		&user.ID, middleware.GetClientIP(r), r.URL.Path, map[string]any{"post_id": post.ID, "slug": post.Slug})

	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Post created successfully")
}

// EditForm handles GET /admin/posts/edit/{id} - displays the post editor.
func (h *PostsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "Invalid post ID")
		return
	}

	post, ok := h.requirePostWithAccess(w, r, id)
	if !ok {
		return
	}

	formValues := map[string]string{
		"title":       post.Title,
		"slug":        post.Slug,
		"excerpt":     post.Excerpt,
		"body":        post.Body,
		"category_id": "",
	}
	if post.CategoryID.Valid {
		formValues["category_id"] = strconv.FormatInt(post.CategoryID.Int64, 10)
	}
	if post.ScheduledAt.Valid {
		formValues["scheduled_at"] = post.ScheduledAt.Time.Format(scheduledAtLayout)
	}

	data := PostFormData{
		Post:       &post,
		Errors:     make(map[string]string),
		FormValues: formValues,
		IsEdit:     true,
	}
	h.renderPostForm(w, r, "Edit Post", data)
}

// Update handles POST /admin/posts/edit/{id} - updates a post's content.
// Status, featured flag and author are never changed here.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "Invalid post ID")
		return
	}

	post, ok := h.requirePostWithAccess(w, r, id)
	if !ok {
		return
	}

	editURL := fmt.Sprintf(redirectAdminPostsEditID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	slug := strings.TrimSpace(r.FormValue("slug"))
	excerpt := strings.TrimSpace(r.FormValue("excerpt"))
	body := r.FormValue("body")
	categoryIDStr := r.FormValue("category_id")
	scheduledAtStr := r.FormValue("scheduled_at")

	if slug == "" && title != "" {
		slug = util.Slugify(title)
	}

	formValues := map[string]string{
		"title":        title,
		"slug":         slug,
		"excerpt":      excerpt,
		"body":         body,
		"category_id":  categoryIDStr,
		"scheduled_at": scheduledAtStr,
	}

	validationErrors := make(map[string]string)

	if title == "" {
		validationErrors["title"] = "Title is required"
	}

	if msg := ValidateSlugForUpdate(slug, post.Slug, func() (bool, error) {
		return h.queries.PostSlugExistsExcluding(r.Context(), store.PostSlugExistsExcludingParams{
			Slug: slug,
			ID:   id,
		})
	}); msg != "" {
		validationErrors["slug"] = msg
	}

	categoryID, catErr := parseCategoryID(r.Context(), h.queries, categoryIDStr)
	if catErr != "" {
		validationErrors["category_id"] = catErr
	}

	scheduledAt, schedErr := parseScheduledAt(scheduledAtStr)
	if schedErr != "" {
		validationErrors["scheduled_at"] = schedErr
	}

	if len(validationErrors) > 0 {
		data := PostFormData{
			Post:       &post,
			Errors:     validationErrors,
			FormValues: formValues,
			IsEdit:     true,
		}
		h.renderPostForm(w, r, "Edit Post", data)
		return
	}

	updated, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		Title:       title,
		Slug:        slug,
		Excerpt:     excerpt,
		Body:        body,
		CategoryID:  categoryID,
		ScheduledAt: scheduledAt,
		UpdatedAt:   time.Now(),
		ID:          id,
	})
	if err != nil {
		slog.Error("failed to update post", "error", err, "post_id", id)
		flashError(w, r, h.renderer, editURL, "Error updating post")
		return
	}

	slog.Info("post updated", "post_id", id, "updated_by", middleware.GetUserID(r))
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post updated: "+updated.Title,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path, map[string]any{"post_id": id})

	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Post updated successfully")
}

// Publish handles POST /admin/posts/{id}/publish - moves a post to published.
func (h *PostsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.PostStatusPublished)
}

// Archive handles POST /admin/posts/{id}/archive - moves a post to archived.
func (h *PostsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.PostStatusArchived)
}

// transition applies a status change, rejecting anything the lifecycle
// does not allow (archived posts never come back, published posts never
// return to draft).
func (h *PostsHandler) transition(w http.ResponseWriter, r *http.Request, target string) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "Invalid post ID")
		return
	}

	post, ok := h.requirePostWithAccess(w, r, id)
	if !ok {
		return
	}

	if !model.CanTransition(post.Status, target) {
		flashError(w, r, h.renderer, redirectAdminPosts,
			fmt.Sprintf("Cannot move a %s post to %s", post.Status, target))
		return
	}

	now := time.Now()
	switch target {
	case model.PostStatusPublished:
		_, err = h.queries.PublishPost(r.Context(), id, now)
	case model.PostStatusArchived:
		_, err = h.queries.ArchivePost(r.Context(), id, now)
	}
	if err != nil {
		slog.Error("failed to change post status", "error", err, "post_id", id, "target", target)
		flashError(w, r, h.renderer, redirectAdminPosts, "Error updating post status")
		return
	}

	slog.Info("post status changed", "post_id", id, "from", post.Status, "to", target, "by", middleware.GetUserID(r))
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo,
		fmt.Sprintf("Post %s: %s", target, post.Title),
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"post_id": id, "from": post.Status, "to": target})

	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Post "+target)
}

// Feature handles POST /admin/posts/{id}/feature - toggles the featured flag.
// Only editors and admins can curate the featured section.
func (h *PostsHandler) Feature(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil || (user.Role != model.RoleAdmin && user.Role != model.RoleEditor) {
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "Invalid post ID")
		return
	}

	post, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminPosts, "post", id,
		func(id int64) (store.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
	if !ok {
		return
	}

	if err := h.queries.SetPostFeatured(r.Context(), store.SetPostFeaturedParams{
		Featured:  !post.Featured,
		UpdatedAt: time.Now(),
		ID:        id,
	}); err != nil {
		slog.Error("failed to toggle featured flag", "error", err, "post_id", id)
		flashError(w, r, h.renderer, redirectAdminPosts, "Error updating post")
		return
	}

	msg := "Post removed from featured"
	if !post.Featured {
		msg = "Post marked as featured"
	}
	flashSuccess(w, r, h.renderer, redirectAdminPosts, msg)
}

// Delete handles DELETE /admin/posts/{id} - deletes a post.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "Invalid post ID")
		return
	}

	post, ok := h.requirePostWithAccess(w, r, id)
	if !ok {
		return
	}

	if err := h.queries.DeletePost(r.Context(), id); err != nil {
		slog.Error("failed to delete post", "error", err, "post_id", id)
		flashError(w, r, h.renderer, redirectAdminPosts, "Error deleting post")
		return
	}

	slog.Info("post deleted", "post_id", id, "slug", post.Slug, "deleted_by", middleware.GetUserID(r))
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post deleted: "+post.Title,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), r.URL.Path, map[string]any{"post_id": id})

	// HTMX requests get an empty 200 so the row is removed in place
	if r.Header.Get("HX-Request") == "true" {
		w.WriteHeader(http.StatusOK)
		return
	}

	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Post deleted successfully")
}

// requirePostWithAccess fetches a post and verifies the current user may
// manage it. Authors may only touch their own posts.
func (h *PostsHandler) requirePostWithAccess(w http.ResponseWriter, r *http.Request, id int64) (store.Post, bool) {
	post, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminPosts, "post", id,
		func(id int64) (store.Post, error) { return h.queries.GetPostByID(r.Context(), id) })
	if !ok {
		return store.Post{}, false
	}

	user := middleware.GetUser(r)
	if user != nil && user.Role == model.RoleAuthor && post.AuthorID != user.ID {
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return store.Post{}, false
	}

	return post, true
}

// parseCategoryID validates an optional category selection. An empty value
// means no category. Returns an error message when the value is malformed
// or the category does not exist.
func parseCategoryID(ctx context.Context, queries *store.Queries, value string) (sql.NullInt64, string) {
	if value == "" {
		return sql.NullInt64{}, ""
	}
	id := util.ParseNullInt64Positive(value)
	if !id.Valid {
		return sql.NullInt64{}, "Invalid category"
	}
	if _, err := queries.GetCategoryByID(ctx, id.Int64); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.NullInt64{}, "Category not found"
		}
		slog.Error("failed to look up category", "error", err, "category_id", id.Int64)
		return sql.NullInt64{}, "Error checking category"
	}
	return id, ""
}

// parseScheduledAt parses an optional datetime-local form value.
func parseScheduledAt(value string) (sql.NullTime, string) {
	if value == "" {
		return sql.NullTime{}, ""
	}
	t, err := time.ParseInLocation(scheduledAtLayout, value, time.Local)
	if err != nil {
		return sql.NullTime{}, "Invalid scheduled time"
	}
	return sql.NullTime{Time: t, Valid: true}, ""
}

// renderPostForm renders the post editor with the given data.
func (h *PostsHandler) renderPostForm(w http.ResponseWriter, r *http.Request, title string, data PostFormData) {
	user := middleware.GetUser(r)

	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}
	data.Categories = categories

	if err := h.renderer.Render(w, r, "admin/posts_form", render.TemplateData{
		Title: title,
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}
