// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/prosa/internal/config"
	"github.com/olegiv/prosa/internal/feed"
	"github.com/olegiv/prosa/internal/geoip"
	"github.com/olegiv/prosa/internal/handler"
	"github.com/olegiv/prosa/internal/imaging"
	"github.com/olegiv/prosa/internal/logging"
	"github.com/olegiv/prosa/internal/middleware"
	"github.com/olegiv/prosa/internal/render"
	"github.com/olegiv/prosa/internal/scheduler"
	"github.com/olegiv/prosa/internal/service"
	"github.com/olegiv/prosa/internal/session"
	"github.com/olegiv/prosa/internal/store"
	"github.com/olegiv/prosa/internal/version"
	"github.com/olegiv/prosa/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Prosa - a multi-author blog engine\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PROSA_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PROSA_DB_PATH          SQLite database path (default: ./data/prosa.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PROSA_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PROSA_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PROSA_SITE_NAME        Site name shown on the frontend and in the feed\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PROSA_BASE_URL         Public base URL used in the RSS feed\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PROSA_UPLOADS_DIR      Avatar uploads directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/olegiv/prosa\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("prosa %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// newLogHandler returns a text handler in development and a JSON
// handler in production.
func newLogHandler(cfg *config.Config, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(newLogHandler(cfg, logLevel))
	slog.SetDefault(logger)
	slog.Info("starting prosa", "version", versionInfo.Version, "commit", versionInfo.GitCommit)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger = slog.New(logging.NewEventLogHandler(newLogHandler(cfg, logLevel), db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// GeoIP lookup for event metadata (optional)
	if cfg.GeoIPEnabled() {
		geoLookup := geoip.NewLookup()
		if err := geoLookup.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("failed to initialize GeoIP lookup", "path", cfg.GeoIPDBPath, "error", err)
		} else {
			service.SetGeoIP(geoLookup)
			defer func() {
				if err := geoLookup.Close(); err != nil {
					slog.Error("error closing GeoIP database", "error", err)
				}
			}()
			slog.Info("GeoIP lookup enabled", "path", cfg.GeoIPDBPath)
		}
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		SiteName:       cfg.SiteName,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Initialize and start the scheduler (scheduled publishing, event pruning)
	sched := scheduler.New(db, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Avatar processor
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}
	avatarProcessor := imaging.NewProcessor(cfg.UploadsDir)

	eventService := service.NewEventService(db)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Compress(5, 1024))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	// Initialize handlers
	site := feed.Site{
		Name:        cfg.SiteName,
		Description: cfg.SiteDescription,
		BaseURL:     cfg.BaseURL,
	}
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection)
	adminHandler := handler.NewAdminHandler(db, renderer, sessionManager)
	postsHandler := handler.NewPostsHandler(db, renderer, sessionManager)
	categoriesHandler := handler.NewCategoriesHandler(db, renderer, sessionManager)
	usersHandler := handler.NewUsersHandler(db, renderer, sessionManager)
	eventsHandler := handler.NewEventsHandler(db, renderer, sessionManager)
	profileHandler := handler.NewProfileHandler(db, renderer, sessionManager, avatarProcessor)
	frontendHandler := handler.NewFrontendHandler(db, renderer, site)

	// Public frontend routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sessionManager, db))
		r.Get(handler.RouteRoot, frontendHandler.Home)
		r.Get(handler.RoutePostSlug, frontendHandler.Post)
		r.Get(handler.RouteRSS, frontendHandler.RSS)
	})

	// Auth routes (public, with CSRF and rate limiting)
	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.Middleware())
		r.Use(csrfMiddleware)
		r.Get(handler.RouteAuth, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteAuth, authHandler.Login)
		r.Get(handler.RouteLogout, authHandler.Logout)
		r.Post(handler.RouteLogout, authHandler.Logout)
	})

	// Admin routes (authenticated, with CSRF)
	r.Route("/admin", func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))

		// Routes available to every role, including authors
		r.Get(handler.RouteRoot, adminHandler.Dashboard)

		r.Get(handler.RoutePosts, postsHandler.List)
		r.Get(handler.RoutePosts+handler.RouteSuffixNew, postsHandler.NewForm)
		r.Post(handler.RoutePosts, postsHandler.Create)
		r.Get(handler.RoutePostsEditID, postsHandler.EditForm)
		r.Put(handler.RoutePostsEditID, postsHandler.Update)
		r.Post(handler.RoutePostsEditID, postsHandler.Update) // HTML forms can't send PUT
		r.Delete(handler.RoutePosts+handler.RouteParamID, postsHandler.Delete)
		r.Post(handler.RoutePosts+handler.RouteParamID+"/publish", postsHandler.Publish)
		r.Post(handler.RoutePosts+handler.RouteParamID+"/archive", postsHandler.Archive)
		r.Post(handler.RoutePosts+handler.RouteParamID+"/feature", postsHandler.Feature)

		r.Get(handler.RouteProfile, profileHandler.Show)
		r.Post(handler.RouteProfile, profileHandler.Update)
		r.Post(handler.RouteProfile+"/password", profileHandler.ChangePassword)

		// Editor routes (editor + admin)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireEditorWithEventLog(eventService))
			r.Get(handler.RouteCategories, categoriesHandler.List)
			r.Post(handler.RouteCategories, categoriesHandler.Create)
			r.Get(handler.RouteCategoriesID, categoriesHandler.EditForm)
			r.Put(handler.RouteCategoriesID, categoriesHandler.Update)
			r.Post(handler.RouteCategoriesID, categoriesHandler.Update) // HTML forms can't send PUT
			r.Delete(handler.RouteCategoriesID, categoriesHandler.Delete)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminWithEventLog(eventService))

			r.Get(handler.RouteUsers, usersHandler.List)
			r.Get(handler.RouteUsers+handler.RouteSuffixNew, usersHandler.NewForm)
			r.Post(handler.RouteUsers, usersHandler.Create)
			r.Get(handler.RouteUsersID, usersHandler.EditForm)
			r.Put(handler.RouteUsersID, usersHandler.Update)
			r.Post(handler.RouteUsersID, usersHandler.Update) // HTML forms can't send PUT
			r.Delete(handler.RouteUsersID, usersHandler.Delete)

			r.Get(handler.RouteEvents, eventsHandler.List)
		})
	})

	// Static file serving
	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Serve uploaded avatars
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))

	// 404 handler uses the public not-found page
	r.NotFound(frontendHandler.NotFound)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
