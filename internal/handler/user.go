package handler

import (
	"log/slog"
	"net/http"

	"github.com/togather-app/togather/internal/auth"
	"github.com/togather-app/togather/internal/service"
	"github.com/togather-app/togather/internal/upload"
)

// UserHandler manages profile mutations for the authenticated identity.
//
// Both routes sit behind RequireAuth, so the identity is always resolved
// from the validated token — a caller can only ever mutate itself.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleUpdateThumbnail stores a new avatar for the authenticated identity.
//
// HTTP: PATCH /auth/user/thumbnail
// Auth: Required
// REQUEST BODY: multipart/form-data with a "thumbnail" file field
//
// SIZE LIMIT:
// http.MaxBytesReader caps the whole request body at the image limit, so an
// oversized upload fails during the multipart parse instead of streaming
// unbounded data through the server.
//
// RESPONSES:
//
//	200 → the updated identity, sanitized
//	400 → no usable file in the request
//	500 → any lookup/upload/persistence failure (collapsed on purpose)
func (h *UserHandler) HandleUpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxImageSize)
	if err := r.ParseMultipartForm(upload.MaxImageSize); err != nil {
		h.logger.Warn("thumbnail: multipart parse failed",
			slog.String("userID", identity.UserID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "a thumbnail image file is required",
		})
		return
	}

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "a thumbnail image file is required",
		})
		return
	}
	defer file.Close()

	user, err := h.users.UpdateThumbnail(r.Context(), identity.Email, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleTutorialComplete marks onboarding as done for the authenticated
// identity.
//
// HTTP: PATCH /auth/user/tutorial
// Auth: Required
//
// Idempotent: completing an already-completed tutorial returns the same 200.
//
// RESPONSE: 200 → {"message": "user has proceeded the tutorial"}
func (h *UserHandler) HandleTutorialComplete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	msg, err := h.users.CompleteTutorial(r.Context(), identity.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}
