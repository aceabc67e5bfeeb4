// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/prosa/internal/middleware"
	"github.com/olegiv/prosa/internal/model"
	"github.com/olegiv/prosa/internal/render"
	"github.com/olegiv/prosa/internal/store"
)

// EventsPerPage is the number of events to display per page.
const EventsPerPage = 25

// EventsHandler handles event log viewing routes.
type EventsHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *EventsHandler {
	return &EventsHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// EventView represents an event prepared for display.
type EventView struct {
	ID          int64
	Level       string
	Category    string
	Message     string
	Details     string // Formatted metadata as readable text
	DetailsLong bool   // True if details exceed display threshold
	CreatedAt   string
	UserID      int64
}

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

// formatMetadata converts JSON metadata to readable text format.
// Example: {"path":"/admin/posts","error":"not found"} -> "error: not found, path: /admin/posts"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata // Return as-is if not valid JSON
	}

	if len(data) == 0 {
		return ""
	}

	// Sort keys for consistent output order
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		value := data[key]
		var strValue string
		switch v := value.(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			// For nested objects, marshal back to JSON
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}

	return strings.Join(parts, ", ")
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events      []EventView
	TotalEvents int64
	Level       string
	Category    string
	Levels      []string
	Categories  []string
	Pagination  AdminPagination
}

// List handles GET /admin/events - displays a paginated list of events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	level := r.URL.Query().Get("level")
	category := r.URL.Query().Get("category")

	page := ParsePageParam(r)

	totalEvents, err := h.queries.CountEvents(r.Context(), store.CountEventsParams{
		Level:    level,
		Category: category,
	})
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}

	page, _ = NormalizePagination(page, int(totalEvents), EventsPerPage)
	offset := int64((page - 1) * EventsPerPage)

	rows, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Level:    level,
		Category: category,
		Limit:    EventsPerPage,
		Offset:   offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	data := EventsListData{
		Events:      convertEvents(rows),
		TotalEvents: totalEvents,
		Level:       level,
		Category:    category,
		Levels:      []string{model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError},
		Categories: []string{
			model.EventCategoryAuth,
			model.EventCategoryPost,
			model.EventCategoryCategory,
			model.EventCategoryUser,
			model.EventCategorySystem,
		},
		Pagination: BuildAdminPagination(page, int(totalEvents), EventsPerPage, redirectAdminEvents, r.URL.Query()),
	}

	if err := h.renderer.Render(w, r, "admin/events", render.TemplateData{
		Title: "Event Log",
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render events", "error", err)
	}
}

// convertEvents prepares event rows for display.
func convertEvents(rows []store.Event) []EventView {
	events := make([]EventView, len(rows))
	for i, row := range rows {
		details := formatMetadata(row.Metadata)
		events[i] = EventView{
			ID:          row.ID,
			Level:       row.Level,
			Category:    row.Category,
			Message:     row.Message,
			Details:     details,
			DetailsLong: len(details) > detailsLengthThreshold,
			CreatedAt:   row.CreatedAt.Format("2006-01-02 15:04:05"),
			UserID:      row.UserID.Int64,
		}
	}
	return events
}
