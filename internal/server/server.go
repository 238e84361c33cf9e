// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and
// routes. Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "load config, start the server")
//
// DEPENDENCY INJECTION FLOW:
// main.go loads Config from the environment and calls New(), which wires:
//
//	sqlite.DB → TokenService/PasswordService → TokenIssuer → UserService
//	          → AuthHandler/UserHandler → routes
//
// This is the "composition root" pattern — all dependencies are assembled in
// one place rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/togather-app/togather/internal/auth"
	"github.com/togather-app/togather/internal/handler"
	"github.com/togather-app/togather/internal/middleware"
	sqliteRepo "github.com/togather-app/togather/internal/repository/sqlite"
	"github.com/togather-app/togather/internal/service"
	"github.com/togather-app/togather/internal/upload"
)

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy
// to add options without changing function signatures and to load everything
// from the environment in one place (cmd/server/main.go).
type Config struct {
	Port      int
	DBPath    string // path to the SQLite database file
	JWTSecret string // HMAC signing key, min 16 chars

	// Kakao OAuth application credentials
	KakaoClientID     string
	KakaoClientSecret string
	KakaoCallbackURL  string

	// CORS: the web client's origin, e.g. http://localhost:3000
	AllowedOrigin string

	// Local upload storage. Used when S3.Bucket is empty.
	UploadDir string

	// S3/MinIO upload storage. Setting Bucket switches the uploader from
	// local disk to object storage.
	S3 upload.S3Config
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. When the server shuts down we
// must close it to flush the WAL and release the file lock — handled in
// Start() during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// This is where the entire dependency chain is assembled. Each layer only
// receives what it needs: the service gets the repository interface (not the
// concrete sqlite.DB), the handlers get the service (not the repository).
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo to avoid confusion with the
// sqlite driver package.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // clean up the DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// newUploader picks the image storage backend from config: S3/MinIO when a
// bucket is configured, local disk otherwise (the local dev default).
func (s *Server) newUploader() (upload.Uploader, error) {
	if s.config.S3.Bucket != "" {
		return upload.NewS3Uploader(context.Background(), s.config.S3)
	}
	return upload.NewLocalUploader(s.config.UploadDir, "/uploads")
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST  /auth/signup          → register, first token pair       (public)
//	POST  /auth/login           → verify credentials, fresh pair   (public)
//	GET   /auth/kakao/login     → redirect to Kakao                (public)
//	GET   /auth/kakao/callback  → complete Kakao flow              (public)
//	GET   /auth/all             → current identity + calendar      (Bearer)
//	PATCH /auth/user/thumbnail  → avatar upload (multipart)        (Bearer)
//	PATCH /auth/user/tutorial   → mark onboarding done             (Bearer)
//	GET   /uploads/*            → locally stored images            (public)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID — assigns a unique ID to each request (for tracing)
// 2. RealIP — extracts the real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. CORS — the browser client runs on a different origin
// 5. Logger — logs each request with timing info
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)

	// The web client sends the Authorization header cross-origin, so it must
	// be explicitly allowed here or the browser strips it in preflight.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(middleware.Logger(s.logger))

	// === Wiring ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	uploader, err := s.newUploader()
	if err != nil {
		return fmt.Errorf("creating uploader: %w", err)
	}

	issuer := service.NewTokenIssuer(s.db, tokens, s.logger)
	users := service.NewUserService(s.db, issuer, auth.NewPasswordService(), uploader, s.logger)

	kakao := auth.NewKakaoProvider(
		s.config.KakaoClientID,
		s.config.KakaoClientSecret,
		s.config.KakaoCallbackURL,
	)

	authHandler := handler.NewAuthHandler(users, kakao, s.logger)
	userHandler := handler.NewUserHandler(users, s.logger)

	// === Routes ===
	s.router.Route("/auth", func(r chi.Router) {
		// Public: these are how a session comes into existence
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/kakao/login", authHandler.HandleKakaoLogin)
		r.Get("/kakao/callback", authHandler.HandleKakaoCallback)

		// Protected: a valid Bearer token is required
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/all", authHandler.HandleAll)
			r.Patch("/user/thumbnail", userHandler.HandleUpdateThumbnail)
			r.Patch("/user/tutorial", userHandler.HandleTutorialComplete)
		})
	})

	// Locally stored thumbnails are served straight off the disk. With the
	// S3 uploader the returned URLs point at the bucket and this route just
	// never matches anything.
	if s.config.UploadDir != "" {
		fileServer := http.FileServer(http.Dir(s.config.UploadDir))
		s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases the file lock)
//
// The `defer s.db.Close()` ensures step 3 happens even if something panics.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
