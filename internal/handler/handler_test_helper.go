// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/prosa/internal/auth"
	"github.com/olegiv/prosa/internal/middleware"
	"github.com/olegiv/prosa/internal/render"
	"github.com/olegiv/prosa/internal/store"
	"github.com/olegiv/prosa/internal/testutil"
)

// testHandlerSetup creates a migrated test database and session manager.
func testHandlerSetup(t *testing.T) (*sql.DB, *scs.SessionManager) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	return db, testSessionManager(t)
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

var (
	testHashOnce sync.Once
	testHash     string
)

// testPasswordHash returns a hash of "password123", computed once per
// test binary so every test user shares it.
func testPasswordHash(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		h, err := auth.HashPassword("password123")
		if err != nil {
			panic(err)
		}
		testHash = h
	})
	return testHash
}

// testUser describes a user to create for a test.
type testUser struct {
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// createTestUser creates a test user with a role row.
func createTestUser(t *testing.T, db *sql.DB, user testUser) store.User {
	t.Helper()

	if user.PasswordHash == "" {
		user.PasswordHash = testPasswordHash(t)
	}

	now := time.Now()
	result, err := db.Exec(
		`INSERT INTO users (email, password_hash, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Name, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	id, _ := result.LastInsertId()

	if user.Role != "" {
		if _, err := db.Exec(
			`INSERT INTO user_roles (user_id, role, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			id, user.Role, now, now,
		); err != nil {
			t.Fatalf("failed to create test user role: %v", err)
		}
	} else {
		user.Role = "author"
	}

	return store.User{
		ID:           id,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Name:         user.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// createTestPost inserts a post directly for test setup.
func createTestPost(t *testing.T, db *sql.DB, title, slug, status string, authorID int64) int64 {
	t.Helper()

	now := time.Now()
	var publishedAt any
	if status == "published" {
		publishedAt = now
	}
	result, err := db.Exec(
		`INSERT INTO posts (title, slug, status, author_id, created_at, updated_at, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, slug, status, authorID, now, now, publishedAt,
	)
	if err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(t *testing.T, sm *scs.SessionManager, r *http.Request) *http.Request {
	t.Helper()
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return r.WithContext(ctx)
}

// requestWithUser places a user in the request context the way the
// LoadUser middleware does.
func requestWithUser(r *http.Request, user store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// newAuthenticatedRequest builds a request with session, URL params and
// an authenticated user, plus a recorder.
func newAuthenticatedRequest(t *testing.T, sm *scs.SessionManager, method, target string,
	params map[string]string, user *store.User) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	req = requestWithSession(t, sm, req)
	if params != nil {
		req = requestWithURLParams(req, params)
	}
	if user != nil {
		req = requestWithUser(req, *user)
		sm.Put(req.Context(), SessionKeyUserID, user.ID)
	}
	return req, httptest.NewRecorder()
}

// newAuthenticatedDeleteRequest builds a DELETE request for handler tests.
func newAuthenticatedDeleteRequest(t *testing.T, sm *scs.SessionManager, target string,
	params map[string]string, user *store.User) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	return newAuthenticatedRequest(t, sm, http.MethodDelete, target, params, user)
}

// testRenderer builds a renderer backed by minimal stub templates so
// handler tests can exercise render and flash paths without the real
// template tree.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	base := []byte(`{{define "base"}}{{.Flash}}{{template "content" .}}{{end}}`)
	page := func(name string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte(`{{define "content"}}` + name + `{{end}}`)}
	}

	templatesFS := fstest.MapFS{
		"layouts/base.html":           {Data: base},
		"layouts/admin.html":          {Data: []byte("")},
		"admin/dashboard.html":        page("dashboard"),
		"admin/posts_list.html":       page("posts_list"),
		"admin/posts_form.html":       page("posts_form"),
		"admin/categories_list.html":  page("categories_list"),
		"admin/categories_form.html":  page("categories_form"),
		"admin/users_list.html":       page("users_list"),
		"admin/users_form.html":       page("users_form"),
		"admin/events.html":           page("events"),
		"admin/profile.html":          page("profile"),
		"auth/login.html":             page("login"),
		"frontend/home.html":          page("home"),
		"frontend/post.html":          page("post"),
		"frontend/404.html":           page("not_found"),
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		SiteName:       "Prosa Test",
	})
	if err != nil {
		t.Fatalf("failed to create test renderer: %v", err)
	}
	return renderer
}

// newAuthenticatedFormRequest builds a form-encoded request with session,
// URL params and an authenticated user, plus a recorder.
func newAuthenticatedFormRequest(t *testing.T, sm *scs.SessionManager, method, target string,
	params map[string]string, user *store.User, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = requestWithSession(t, sm, req)
	if params != nil {
		req = requestWithURLParams(req, params)
	}
	if user != nil {
		req = requestWithUser(req, *user)
		sm.Put(req.Context(), SessionKeyUserID, user.ID)
	}
	return req, httptest.NewRecorder()
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
