// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
)

func categoryForm(name, catType, color string) url.Values {
	form := url.Values{}
	form.Set("name", name)
	form.Set("type", catType)
	form.Set("color", color)
	return form
}

func TestNewCategoriesHandler(t *testing.T) {
	db, sm := testHandlerSetup(t)

	handler := NewCategoriesHandler(db, nil, sm)

	if handler == nil {
		t.Fatal("NewCategoriesHandler returned nil")
	}
	if handler.queries == nil {
		t.Error("queries should not be nil")
	}
}

func TestCategoriesHandler_Create(t *testing.T) {
	db, sm := testHandlerSetup(t)

	admin := createTestUser(t, db, testUser{
		Email: "admin@example.com",
		Name:  "Admin User",
		Role:  "admin",
	})

	handler := NewCategoriesHandler(db, testRenderer(t, sm), sm)

	t.Run("slug folds diacritics", func(t *testing.T) {
		form := categoryForm("IA: O Futuro é Agora!", "news", "#3B82F6")
		form.Set("description", "Artificial intelligence news")

		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories", nil, &admin, form)

		handler.Create(w, req)

		assertStatus(t, w.Code, http.StatusSeeOther)

		var slug, description string
		err := db.QueryRow(`SELECT slug, description FROM categories WHERE name = ?`, "IA: O Futuro é Agora!").Scan(&slug, &description)
		if err != nil {
			t.Fatalf("category not created: %v", err)
		}
		if slug != "ia-o-futuro-e-agora" {
			t.Errorf("slug = %q; want ia-o-futuro-e-agora", slug)
		}
		if description != "Artificial intelligence news" {
			t.Errorf("description = %q; want Artificial intelligence news", description)
		}
	})

	t.Run("accented and plain names collide", func(t *testing.T) {
		form := categoryForm("Saúde", "news", "#10B981")
		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories", nil, &admin, form)
		handler.Create(w, req)
		assertStatus(t, w.Code, http.StatusSeeOther)

		// "saude" slugifies to the same value, so the second create fails
		form = categoryForm("saude", "news", "#10B981")
		req, w = newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories", nil, &admin, form)
		handler.Create(w, req)
		assertStatus(t, w.Code, http.StatusOK)

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM categories WHERE slug = ?`, "saude").Scan(&count); err != nil {
			t.Fatalf("failed to count categories: %v", err)
		}
		if count != 1 {
			t.Errorf("slug saude used by %d categories, want 1", count)
		}
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		form := categoryForm("Reviews", "opinion", "#3B82F6")

		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories", nil, &admin, form)

		handler.Create(w, req)

		assertStatus(t, w.Code, http.StatusOK)

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM categories WHERE name = ?`, "Reviews").Scan(&count); err != nil {
			t.Fatalf("failed to count categories: %v", err)
		}
		if count != 0 {
			t.Error("category should not have been created with an invalid type")
		}
	})

	t.Run("color outside palette rejected", func(t *testing.T) {
		form := categoryForm("Reviews", "news", "#123456")

		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories", nil, &admin, form)

		handler.Create(w, req)

		assertStatus(t, w.Code, http.StatusOK)

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM categories WHERE name = ?`, "Reviews").Scan(&count); err != nil {
			t.Fatalf("failed to count categories: %v", err)
		}
		if count != 0 {
			t.Error("category should not have been created with a color outside the palette")
		}
	})
}

func TestCategoriesHandler_Update(t *testing.T) {
	db, sm := testHandlerSetup(t)

	admin := createTestUser(t, db, testUser{
		Email: "admin@example.com",
		Name:  "Admin User",
		Role:  "admin",
	})

	handler := NewCategoriesHandler(db, testRenderer(t, sm), sm)

	createCategory := func(name, slug string) int64 {
		t.Helper()
		result, err := db.Exec(
			`INSERT INTO categories (name, slug, type, color, created_at, updated_at)
			 VALUES (?, ?, 'news', '#3B82F6', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			name, slug,
		)
		if err != nil {
			t.Fatalf("failed to create category: %v", err)
		}
		id, _ := result.LastInsertId()
		return id
	}

	t.Run("rename keeps the stored slug", func(t *testing.T) {
		id := createCategory("Tech", "tech")
		idStr := fmt.Sprintf("%d", id)

		form := categoryForm("Ciência", "curiosity", "#8B5CF6")
		form.Set("slug", "tech")
		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories/"+idStr,
			map[string]string{"id": idStr}, &admin, form)

		handler.Update(w, req)

		assertStatus(t, w.Code, http.StatusSeeOther)

		var name, slug, catType string
		if err := db.QueryRow(`SELECT name, slug, type FROM categories WHERE id = ?`, id).Scan(&name, &slug, &catType); err != nil {
			t.Fatalf("failed to read category: %v", err)
		}
		if name != "Ciência" {
			t.Errorf("name = %q; want Ciência", name)
		}
		if slug != "tech" {
			t.Errorf("slug = %q; want tech (rename must not move the public URL)", slug)
		}
		if catType != "curiosity" {
			t.Errorf("type = %q; want curiosity", catType)
		}
	})

	t.Run("empty slug field keeps the stored slug", func(t *testing.T) {
		id := createCategory("Music", "music")
		idStr := fmt.Sprintf("%d", id)

		form := categoryForm("Música", "news", "#EF4444")
		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories/"+idStr,
			map[string]string{"id": idStr}, &admin, form)

		handler.Update(w, req)

		assertStatus(t, w.Code, http.StatusSeeOther)

		var slug string
		if err := db.QueryRow(`SELECT slug FROM categories WHERE id = ?`, id).Scan(&slug); err != nil {
			t.Fatalf("failed to read category: %v", err)
		}
		if slug != "music" {
			t.Errorf("slug = %q; want music", slug)
		}
	})

	t.Run("edited slug is slugified and stored", func(t *testing.T) {
		id := createCategory("Science", "science")
		idStr := fmt.Sprintf("%d", id)

		form := categoryForm("Science", "curiosity", "#8B5CF6")
		form.Set("slug", "Ciência e Saúde")
		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories/"+idStr,
			map[string]string{"id": idStr}, &admin, form)

		handler.Update(w, req)

		assertStatus(t, w.Code, http.StatusSeeOther)

		var slug string
		if err := db.QueryRow(`SELECT slug FROM categories WHERE id = ?`, id).Scan(&slug); err != nil {
			t.Fatalf("failed to read category: %v", err)
		}
		if slug != "ciencia-e-saude" {
			t.Errorf("slug = %q; want ciencia-e-saude", slug)
		}
	})

	t.Run("slug collision rejected", func(t *testing.T) {
		createCategory("Games", "games")
		id := createCategory("Culture", "culture")
		idStr := fmt.Sprintf("%d", id)

		form := categoryForm("Culture", "news", "#EF4444")
		form.Set("slug", "games")
		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories/"+idStr,
			map[string]string{"id": idStr}, &admin, form)

		handler.Update(w, req)

		// Re-renders the form with a validation error
		assertStatus(t, w.Code, http.StatusOK)

		var slug string
		if err := db.QueryRow(`SELECT slug FROM categories WHERE id = ?`, id).Scan(&slug); err != nil {
			t.Fatalf("failed to read category: %v", err)
		}
		if slug != "culture" {
			t.Errorf("slug = %q; want culture (collision must not overwrite)", slug)
		}
	})

	t.Run("description updated", func(t *testing.T) {
		id := createCategory("Travel", "travel")
		idStr := fmt.Sprintf("%d", id)

		form := categoryForm("Travel", "news", "#3B82F6")
		form.Set("slug", "travel")
		form.Set("description", "Trips and destinations")
		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/categories/"+idStr,
			map[string]string{"id": idStr}, &admin, form)

		handler.Update(w, req)

		assertStatus(t, w.Code, http.StatusSeeOther)

		var description string
		if err := db.QueryRow(`SELECT description FROM categories WHERE id = ?`, id).Scan(&description); err != nil {
			t.Fatalf("failed to read category: %v", err)
		}
		if description != "Trips and destinations" {
			t.Errorf("description = %q; want Trips and destinations", description)
		}
	})
}

func TestCategoriesHandler_Delete(t *testing.T) {
	db, sm := testHandlerSetup(t)

	admin := createTestUser(t, db, testUser{
		Email: "admin@example.com",
		Name:  "Admin User",
		Role:  "admin",
	})
	author := createTestUser(t, db, testUser{
		Email: "author@example.com",
		Name:  "Author User",
		Role:  "author",
	})

	handler := NewCategoriesHandler(db, testRenderer(t, sm), sm)

	result, err := db.Exec(
		`INSERT INTO categories (name, slug, type, color, created_at, updated_at)
		 VALUES ('News', 'news', 'news', '#3B82F6', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	categoryID, _ := result.LastInsertId()

	postID := createTestPost(t, db, "Categorized", "categorized", "published", author.ID)
	if _, err := db.Exec(`UPDATE posts SET category_id = ? WHERE id = ?`, categoryID, postID); err != nil {
		t.Fatalf("failed to set post category: %v", err)
	}

	idStr := fmt.Sprintf("%d", categoryID)
	req, w := newAuthenticatedDeleteRequest(t, sm, "/admin/categories/"+idStr,
		map[string]string{"id": idStr}, &admin)
	req.Header.Set("HX-Request", "true")

	handler.Delete(w, req)

	assertStatus(t, w.Code, http.StatusOK)

	// The post survives with no category
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM posts WHERE id = ?`, postID).Scan(&count); err != nil {
		t.Fatalf("failed to count posts: %v", err)
	}
	if count != 1 {
		t.Fatal("post should survive category deletion")
	}

	var categoryRef any
	if err := db.QueryRow(`SELECT category_id FROM posts WHERE id = ?`, postID).Scan(&categoryRef); err != nil {
		t.Fatalf("failed to read post category: %v", err)
	}
	if categoryRef != nil {
		t.Errorf("category_id = %v; want NULL", categoryRef)
	}
}
