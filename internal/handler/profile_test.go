// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/olegiv/prosa/internal/auth"
	"github.com/olegiv/prosa/internal/imaging"
	"github.com/olegiv/prosa/internal/store"
)

func TestProfileHandler_Show(t *testing.T) {
	db, sm := testHandlerSetup(t)

	user := createTestUser(t, db, testUser{
		Email: "author@example.com",
		Name:  "Author User",
		Role:  "author",
	})

	handler := NewProfileHandler(db, testRenderer(t, sm), sm, nil)

	req, w := newAuthenticatedRequest(t, sm, http.MethodGet, "/admin/profile", nil, &user)

	handler.Show(w, req)

	assertStatus(t, w.Code, http.StatusOK)
}

func TestProfileHandler_Show_Unauthenticated(t *testing.T) {
	db, sm := testHandlerSetup(t)

	handler := NewProfileHandler(db, testRenderer(t, sm), sm, nil)

	req, w := newAuthenticatedRequest(t, sm, http.MethodGet, "/admin/profile", nil, nil)

	handler.Show(w, req)

	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != "/auth" {
		t.Errorf("redirect = %q; want /auth", loc)
	}
}

func TestProfileHandler_Update(t *testing.T) {
	db, sm := testHandlerSetup(t)

	user := createTestUser(t, db, testUser{
		Email: "author@example.com",
		Name:  "Author User",
		Role:  "author",
	})

	handler := NewProfileHandler(db, testRenderer(t, sm), sm, nil)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	_ = mw.WriteField("name", "Renamed Author")
	_ = mw.WriteField("bio", "Writes about Go.")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/profile", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = requestWithSession(t, sm, req)
	req = requestWithUser(req, user)
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assertStatus(t, w.Code, http.StatusSeeOther)

	var name, bio string
	if err := db.QueryRow(`SELECT name, bio FROM users WHERE id = ?`, user.ID).Scan(&name, &bio); err != nil {
		t.Fatalf("failed to read user: %v", err)
	}
	if name != "Renamed Author" {
		t.Errorf("name = %q; want Renamed Author", name)
	}
	if bio != "Writes about Go." {
		t.Errorf("bio = %q; want Writes about Go.", bio)
	}
}

func TestProfileHandler_Update_ReplacesAvatar(t *testing.T) {
	db, sm := testHandlerSetup(t)

	user := createTestUser(t, db, testUser{
		Email: "author@example.com",
		Name:  "Author User",
		Role:  "author",
	})

	uploadDir := t.TempDir()
	handler := NewProfileHandler(db, testRenderer(t, sm), sm, imaging.NewProcessor(uploadDir))

	uploadAvatar := func(u store.User) string {
		t.Helper()

		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		_ = mw.WriteField("name", "Author User")
		_ = mw.WriteField("bio", "Writes about Go.")
		part, err := mw.CreateFormFile("avatar", "avatar.jpg")
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if err := jpeg.Encode(part, image.NewRGBA(image.Rect(0, 0, 64, 64)), &jpeg.Options{Quality: 90}); err != nil {
			t.Fatalf("encoding test image: %v", err)
		}
		_ = mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/admin/profile", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req = requestWithSession(t, sm, req)
		req = requestWithUser(req, u)
		w := httptest.NewRecorder()

		handler.Update(w, req)
		assertStatus(t, w.Code, http.StatusSeeOther)

		var avatarPath string
		if err := db.QueryRow(`SELECT avatar_path FROM users WHERE id = ?`, u.ID).Scan(&avatarPath); err != nil {
			t.Fatalf("failed to read avatar path: %v", err)
		}
		return avatarPath
	}

	first := uploadAvatar(user)
	if first == "" {
		t.Fatal("first upload should store an avatar path")
	}
	firstDir := filepath.Join(uploadDir, filepath.FromSlash(path.Dir(first)))
	if _, err := os.Stat(firstDir); err != nil {
		t.Fatalf("first avatar files missing: %v", err)
	}

	user.AvatarPath = first
	second := uploadAvatar(user)
	if second == "" || second == first {
		t.Fatalf("second upload should store a fresh path, got %q", second)
	}
	if _, err := os.Stat(filepath.Join(uploadDir, filepath.FromSlash(second))); err != nil {
		t.Errorf("new avatar file missing: %v", err)
	}

	// Old files go away once the replacement is stored
	if _, err := os.Stat(firstDir); !os.IsNotExist(err) {
		t.Errorf("old avatar files should be removed, stat err = %v", err)
	}
}

func TestProfileHandler_ChangePassword(t *testing.T) {
	db, sm := testHandlerSetup(t)

	user := createTestUser(t, db, testUser{
		Email: "author@example.com",
		Name:  "Author User",
		Role:  "author",
	})

	handler := NewProfileHandler(db, testRenderer(t, sm), sm, nil)

	t.Run("wrong current password", func(t *testing.T) {
		form := url.Values{}
		form.Set("current_password", "not-the-password")
		form.Set("new_password", "newsecret123")
		form.Set("confirm_password", "newsecret123")

		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/profile/password", nil, &user, form)

		handler.ChangePassword(w, req)

		assertStatus(t, w.Code, http.StatusSeeOther)

		var hash string
		if err := db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, user.ID).Scan(&hash); err != nil {
			t.Fatalf("failed to read hash: %v", err)
		}
		if hash != user.PasswordHash {
			t.Error("password should not have changed")
		}
	})

	t.Run("too short", func(t *testing.T) {
		form := url.Values{}
		form.Set("current_password", "password123")
		form.Set("new_password", "short")
		form.Set("confirm_password", "short")

		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/profile/password", nil, &user, form)

		handler.ChangePassword(w, req)

		assertStatus(t, w.Code, http.StatusSeeOther)

		var hash string
		if err := db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, user.ID).Scan(&hash); err != nil {
			t.Fatalf("failed to read hash: %v", err)
		}
		if hash != user.PasswordHash {
			t.Error("password should not have changed")
		}
	})

	t.Run("valid change", func(t *testing.T) {
		form := url.Values{}
		form.Set("current_password", "password123")
		form.Set("new_password", "newsecret123")
		form.Set("confirm_password", "newsecret123")

		req, w := newAuthenticatedFormRequest(t, sm, http.MethodPost, "/admin/profile/password", nil, &user, form)

		handler.ChangePassword(w, req)

		assertStatus(t, w.Code, http.StatusSeeOther)

		var hash string
		if err := db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, user.ID).Scan(&hash); err != nil {
			t.Fatalf("failed to read hash: %v", err)
		}
		valid, err := auth.CheckPassword("newsecret123", hash)
		if err != nil || !valid {
			t.Error("new password should verify")
		}
	})
}
