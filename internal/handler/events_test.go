// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/olegiv/prosa/internal/store"
)

func TestNewEventsHandler(t *testing.T) {
	db, sm := testHandlerSetup(t)

	h := NewEventsHandler(db, nil, sm)
	if h == nil {
		t.Fatal("NewEventsHandler returned nil")
	}
	if h.queries == nil {
		t.Error("queries should not be nil")
	}
}

func TestEventCreate(t *testing.T) {
	db, _ := testHandlerSetup(t)

	user := createTestUser(t, db, testUser{
		Email: "admin@example.com",
		Name:  "Admin User",
		Role:  "admin",
	})

	queries := store.New(db)

	event, err := queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     "info",
		Category:  "system",
		Message:   "Test event message",
		UserID:    sql.NullInt64{Int64: user.ID, Valid: true},
		Metadata:  `{"key": "value"}`,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	if event.Level != "info" {
		t.Errorf("Level = %q, want %q", event.Level, "info")
	}
	if event.Category != "system" {
		t.Errorf("Category = %q, want %q", event.Category, "system")
	}
	if event.Message != "Test event message" {
		t.Errorf("Message = %q, want %q", event.Message, "Test event message")
	}
}

func TestEventWithoutUser(t *testing.T) {
	db, _ := testHandlerSetup(t)

	queries := store.New(db)

	event, err := queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     "info",
		Category:  "system",
		Message:   "System event without user",
		Metadata:  "{}",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	if event.UserID.Valid {
		t.Error("UserID should not be valid for system event")
	}
}

// createTestEvents creates events with the given levels and categories.
func createTestEvents(t *testing.T, queries *store.Queries, levels, categories []string) {
	t.Helper()
	for i := range levels {
		_, err := queries.CreateEvent(context.Background(), store.CreateEventParams{
			Level:     levels[i],
			Category:  categories[i],
			Message:   "Event " + levels[i] + "-" + categories[i],
			Metadata:  "{}",
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}
}

func TestEventList(t *testing.T) {
	db, _ := testHandlerSetup(t)

	queries := store.New(db)

	createTestEvents(t, queries,
		[]string{"info", "warning", "error"},
		[]string{"system", "system", "system"})

	t.Run("list all", func(t *testing.T) {
		events, err := queries.ListEvents(context.Background(), store.ListEventsParams{
			Limit:  100,
			Offset: 0,
		})
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(events) != 3 {
			t.Errorf("got %d events, want 3", len(events))
		}
	})

	t.Run("count", func(t *testing.T) {
		count, err := queries.CountEvents(context.Background(), store.CountEventsParams{})
		if err != nil {
			t.Fatalf("CountEvents failed: %v", err)
		}
		if count != 3 {
			t.Errorf("count = %d, want 3", count)
		}
	})
}

func TestEventListFilters(t *testing.T) {
	db, _ := testHandlerSetup(t)
	queries := store.New(db)

	createTestEvents(t, queries,
		[]string{"info", "info", "warning", "error"},
		[]string{"auth", "post", "auth", "system"})

	t.Run("by level", func(t *testing.T) {
		events, err := queries.ListEvents(context.Background(), store.ListEventsParams{
			Level: "info", Limit: 100, Offset: 0,
		})
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("got %d info events, want 2", len(events))
		}
	})

	t.Run("by category", func(t *testing.T) {
		events, err := queries.ListEvents(context.Background(), store.ListEventsParams{
			Category: "auth", Limit: 100, Offset: 0,
		})
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("got %d auth events, want 2", len(events))
		}
	})

	t.Run("by level and category", func(t *testing.T) {
		count, err := queries.CountEvents(context.Background(), store.CountEventsParams{
			Level: "info", Category: "auth",
		})
		if err != nil {
			t.Fatalf("CountEvents failed: %v", err)
		}
		if count != 1 {
			t.Errorf("count = %d, want 1", count)
		}
	})
}

func TestDeleteEventsBefore(t *testing.T) {
	db, _ := testHandlerSetup(t)
	queries := store.New(db)

	old := time.Now().Add(-48 * time.Hour)
	for _, created := range []time.Time{old, old, time.Now()} {
		_, err := queries.CreateEvent(context.Background(), store.CreateEventParams{
			Level:     "info",
			Category:  "system",
			Message:   "retention check",
			Metadata:  "{}",
			CreatedAt: created,
		})
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}

	deleted, err := queries.DeleteEventsBefore(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	count, err := queries.CountEvents(context.Background(), store.CountEventsParams{})
	if err != nil {
		t.Fatalf("CountEvents failed: %v", err)
	}
	if count != 1 {
		t.Errorf("remaining = %d, want 1", count)
	}
}

func TestEventsHandler_List(t *testing.T) {
	db, sm := testHandlerSetup(t)
	queries := store.New(db)

	admin := createTestUser(t, db, testUser{
		Email: "admin@example.com",
		Name:  "Admin User",
		Role:  "admin",
	})

	createTestEvents(t, queries,
		[]string{"info", "warning"},
		[]string{"auth", "post"})

	h := NewEventsHandler(db, testRenderer(t, sm), sm)

	req, w := newAuthenticatedRequest(t, sm, http.MethodGet, "/admin/events?level=info", nil, &admin)

	h.List(w, req)

	assertStatus(t, w.Code, http.StatusOK)
}

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
		want     string
	}{
		{"empty", "", ""},
		{"empty object", "{}", ""},
		{"single key", `{"ip": "127.0.0.1"}`, "ip: 127.0.0.1"},
		{"not json", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetadata(tt.metadata)
			if got != tt.want {
				t.Errorf("formatMetadata(%q) = %q, want %q", tt.metadata, got, tt.want)
			}
		})
	}
}
