// Package main is the entry point for the togather identity server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main"
// package. The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars)
// 2. Create dependencies (logger)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, etc.). This separation makes the app testable and its
// components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points. A
// project might have multiple executables (e.g., cmd/server, cmd/migrate);
// each gets its own directory with its own main.go.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/togather-app/togather/internal/server"
	"github.com/togather-app/togather/internal/upload"
)

func main() {
	// Local development reads config from a .env file; in production the
	// variables come from the real environment and the file simply isn't
	// there, so the error is ignored.
	_ = godotenv.Load()

	// slog.NewTextHandler outputs human-readable logs to the terminal.
	// Log levels (least to most severe): Debug → Info → Warn → Error.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// DB_PATH allows overriding for production deployments,
	// e.g. DB_PATH=/var/lib/togather/prod.db
	dbPath := "data/togather.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`)
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET must be a long random string. Generate one with:
	//   JWT_SECRET=$(openssl rand -hex 32)
	// Unlike optional integrations, there is no degraded mode without it —
	// every session this server exists to issue is signed with this key.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set — refusing to start")
		os.Exit(1)
	}

	kakaoCallbackURL := os.Getenv("KAKAO_CALLBACK_URL")
	if kakaoCallbackURL == "" {
		kakaoCallbackURL = fmt.Sprintf("http://localhost:%d/auth/kakao/callback", port)
	}

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000" // the web client's dev server
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}

	cfg := server.Config{
		Port:              port,
		DBPath:            dbPath,
		JWTSecret:         jwtSecret,
		KakaoClientID:     os.Getenv("KAKAO_CLIENT_ID"),
		KakaoClientSecret: os.Getenv("KAKAO_CLIENT_SECRET"),
		KakaoCallbackURL:  kakaoCallbackURL,
		AllowedOrigin:     allowedOrigin,
		UploadDir:         uploadDir,

		// Setting S3_BUCKET switches thumbnail storage from local disk to
		// S3 (or MinIO, via S3_ENDPOINT).
		S3: upload.S3Config{
			Region:       os.Getenv("S3_REGION"),
			Bucket:       os.Getenv("S3_BUCKET"),
			AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("S3_SECRET_KEY"),
			BaseEndpoint: os.Getenv("S3_ENDPOINT"),
			PublicURL:    os.Getenv("S3_PUBLIC_URL"),
		},
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
