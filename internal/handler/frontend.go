// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/prosa/internal/feed"
	"github.com/olegiv/prosa/internal/markdown"
	"github.com/olegiv/prosa/internal/render"
	"github.com/olegiv/prosa/internal/store"
)

// RecentPostsLimit caps the recent section on the homepage.
const RecentPostsLimit = 4

// rssPostsLimit caps the number of items in the RSS feed.
const rssPostsLimit = 20

// FrontendHandler handles public site routes.
type FrontendHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	site     feed.Site
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(db *sql.DB, renderer *render.Renderer, site feed.Site) *FrontendHandler {
	return &FrontendHandler{
		queries:  store.New(db),
		renderer: renderer,
		site:     site,
	}
}

// PostCard represents a post summary for the homepage.
type PostCard struct {
	Title         string
	Slug          string
	Excerpt       string
	AuthorName    string
	CategoryName  string
	CategoryColor string
	PublishedAt   string
}

// HomeData holds data for the homepage template.
type HomeData struct {
	FeaturedPosts []PostCard
	RecentPosts   []PostCard
}

// Home handles GET / - the public homepage. Featured published posts
// come first, then the most recent non-featured ones. The two sections
// never show the same post.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	featured, err := h.queries.ListFeaturedPosts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list featured posts", "error", err)
		return
	}

	recent, err := h.queries.ListRecentPosts(r.Context(), RecentPostsLimit)
	if err != nil {
		logAndInternalError(w, "failed to list recent posts", "error", err)
		return
	}

	data := HomeData{
		FeaturedPosts: toPostCards(featured),
		RecentPosts:   toPostCards(recent),
	}

	if err := h.renderer.Render(w, r, "frontend/home", render.TemplateData{
		Title: h.site.Name,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render homepage", "error", err)
	}
}

// PostPageData holds data for the public post template.
type PostPageData struct {
	Title         string
	Body          template.HTML
	Excerpt       string
	AuthorName    string
	AuthorBio     string
	AuthorAvatar  string
	CategoryName  string
	CategoryColor string
	PublishedAt   string
}

// Post handles GET /post/{slug} - displays a single published post.
// Drafts and archived posts are indistinguishable from missing ones.
func (h *FrontendHandler) Post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.queries.GetPublishedPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to get post", "error", err, "slug", slug)
		return
	}

	body, err := markdown.ToHTML(post.Body)
	if err != nil {
		logAndInternalError(w, "failed to render post body", "error", err, "post_id", post.ID)
		return
	}

	data := PostPageData{
		Title:       post.Title,
		Body:        body,
		Excerpt:     post.Excerpt,
		PublishedAt: formatPublishedAt(post.PublishedAt),
	}

	if author, err := h.queries.GetUserByID(r.Context(), post.AuthorID); err != nil {
		slog.Error("failed to get post author", "error", err, "post_id", post.ID)
	} else {
		data.AuthorName = author.Name
		data.AuthorBio = author.Bio
		data.AuthorAvatar = author.AvatarPath
	}

	if post.CategoryID.Valid {
		if category, err := h.queries.GetCategoryByID(r.Context(), post.CategoryID.Int64); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				slog.Error("failed to get post category", "error", err, "post_id", post.ID)
			}
		} else {
			data.CategoryName = category.Name
			data.CategoryColor = category.Color
		}
	}

	if err := h.renderer.Render(w, r, "frontend/post", render.TemplateData{
		Title: post.Title,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render post", "error", err, "slug", slug)
	}
}

// NotFound renders the public 404 page with a link back to the homepage.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	if err := h.renderer.Render(w, r, "frontend/404", render.TemplateData{
		Title: "Page Not Found",
	}); err != nil {
		slog.Error("failed to render 404 page", "error", err)
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}

// RSS handles GET /rss.xml - the published posts feed.
func (h *FrontendHandler) RSS(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPublishedPosts(r.Context(), rssPostsLimit)
	if err != nil {
		logAndInternalError(w, "failed to list posts for feed", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if err := feed.WriteRSS(w, h.site, posts); err != nil {
		slog.Error("failed to write RSS feed", "error", err)
	}
}

// toPostCards converts public post rows to homepage cards.
func toPostCards(rows []store.PublicPostRow) []PostCard {
	cards := make([]PostCard, len(rows))
	for i, p := range rows {
		cards[i] = PostCard{
			Title:         p.Title,
			Slug:          p.Slug,
			Excerpt:       p.Excerpt,
			AuthorName:    p.AuthorName,
			CategoryName:  p.CategoryName.String,
			CategoryColor: p.CategoryColor.String,
			PublishedAt:   formatPublishedAt(p.PublishedAt),
		}
	}
	return cards
}

// formatPublishedAt formats an optional publish time for display.
func formatPublishedAt(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format("Jan 2, 2006")
}
