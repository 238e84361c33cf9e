package repository

import (
	"context"

	"github.com/togather-app/togather/internal/model"
)

// UserRepository is the credential store contract: one record per registered
// identity, keyed internally by ID and externally by email.
//
// The store does not enforce any business rule beyond the schema-level
// uniqueness of live emails — the service layer pre-checks uniqueness before
// insert, and the UNIQUE index backs it up against the check-then-insert race
// between two concurrent sign-ups.
type UserRepository interface {
	// Create inserts a new user. The implementation assigns ID, CreatedAt,
	// and UpdatedAt. A duplicate live email fails with apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error

	// GetByEmail returns the live (non-deleted) user with the given email,
	// or apperror.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByID returns the live user with the given internal ID, or
	// apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// Update persists the user's mutable profile fields.
	Update(ctx context.Context, user *model.User) error

	// SaveTokens attaches a freshly issued token pair to the user's row.
	// Both columns are written in one statement — either both tokens are
	// recorded or neither.
	SaveTokens(ctx context.Context, userID, accessToken, refreshToken string) error

	// MarkTutorialComplete clears the is_first flag for the given email.
	// Idempotent: completing an already-completed tutorial is a no-op success.
	MarkTutorialComplete(ctx context.Context, email string) error
}
