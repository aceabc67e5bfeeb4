// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic and service layer functionality
// including event logging for audit trails.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/prosa/internal/geoip"
	"github.com/olegiv/prosa/internal/model"
	"github.com/olegiv/prosa/internal/store"
)

// geoLookup resolves client IPs to country codes in event metadata.
// Set once at startup when a GeoIP database is configured.
var geoLookup *geoip.Lookup

// SetGeoIP installs the shared GeoIP lookup used to annotate events.
func SetGeoIP(lookup *geoip.Lookup) {
	geoLookup = lookup
}

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent creates a new event log entry. The client IP and request path,
// when present, are folded into the metadata JSON.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, ipAddress, path string, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}
	if ipAddress != "" {
		metadata["ip"] = ipAddress
		if geoLookup != nil && geoLookup.IsEnabled() {
			if country := geoLookup.LookupCountry(ipAddress); country != "" {
				metadata["country"] = country
			}
		}
	}
	if path != "" {
		metadata["path"] = path
	}

	metadataJSON := "{}"
	if jsonBytes, err := json.Marshal(metadata); err == nil {
		metadataJSON = string(jsonBytes)
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to log event", "category", category, "error", err)
		return err
	}

	return nil
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID *int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, path, metadata)
}

// LogPostEvent logs a post-related event.
func (s *EventService) LogPostEvent(ctx context.Context, level, message string, userID *int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryPost, message, userID, ipAddress, path, metadata)
}

// LogCategoryEvent logs a category-related event.
func (s *EventService) LogCategoryEvent(ctx context.Context, level, message string, userID *int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryCategory, message, userID, ipAddress, path, metadata)
}

// LogUserEvent logs a user-related event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message string, userID *int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, ipAddress, path, metadata)
}

// LogSystemEvent logs a system-related event.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, userID *int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategorySystem, message, userID, ipAddress, path, metadata)
}

// DeleteOldEvents removes events older than the specified duration.
// Returns the number of deleted rows.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}
