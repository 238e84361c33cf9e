// Package service — token issuance.
//
// TokenIssuer is deliberately dumb: it mints an access/refresh pair and
// persists it onto the identity's row. It does NOT validate the identity's
// state — by the time it runs, the caller (UserService) has already decided
// the identity deserves a session.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/togather-app/togather/internal/auth"
	"github.com/togather-app/togather/internal/model"
	"github.com/togather-app/togather/internal/repository"
)

// TokenIssuer mints and persists the access/refresh pair bound to a user.
//
// DEPENDENCIES (injected via NewTokenIssuer):
//   - users  repository.UserRepository → the tokens live inline on the users row
//   - tokens *auth.TokenService        → JWT signing
//   - logger *slog.Logger              → structured logging
type TokenIssuer struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewTokenIssuer creates a TokenIssuer with all required dependencies.
func NewTokenIssuer(
	users repository.UserRepository,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *TokenIssuer {
	return &TokenIssuer{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// IssueTokenPair generates an access/refresh pair for the user, persists both
// onto the user's row, and returns the pair.
//
// BOTH-OR-NEITHER:
// Persistence is a single UPDATE writing both columns, so a failure can never
// record half a pair. Each call overwrites whatever pair the user held —
// exactly one pair is live per identity, and a new sign-in invalidates the
// record of the old one.
//
// Failures come back as a plain wrapped error ("generic issuance failure");
// the caller decides how to classify it for its own caller.
func (s *TokenIssuer) IssueTokenPair(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	access, err := s.tokens.GenerateAccess(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/token: generating access token for user %s: %w", user.ID, err)
	}

	refresh, err := s.tokens.GenerateRefresh(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/token: generating refresh token for user %s: %w", user.ID, err)
	}

	if err := s.users.SaveTokens(ctx, user.ID, access, refresh); err != nil {
		return nil, fmt.Errorf("service/token: persisting token pair for user %s: %w", user.ID, err)
	}

	s.logger.Info("token pair issued", slog.String("userID", user.ID))

	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
