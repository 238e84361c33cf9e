// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// UserService is the identity state machine. An identity conceptually moves
// through:
//
//	unregistered → registered → active → (profile-mutated)* → onboarded
//
// Nothing in this package deletes an identity synchronously — account
// deletion is a soft-delete flow owned elsewhere.
//
// DEPENDENCY INJECTION:
// UserService takes repository.UserRepository and upload.Uploader
// (interfaces), NOT concrete types. In tests we pass fakes; in production the
// composition root passes the sqlite store and the disk/S3 uploader.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rs/xid"
	"github.com/togather-app/togather/internal/apperror"
	"github.com/togather-app/togather/internal/auth"
	"github.com/togather-app/togather/internal/model"
	"github.com/togather-app/togather/internal/repository"
	"github.com/togather-app/togather/internal/upload"
)

const MaxNicknameLength = 30

// UserService orchestrates sign-up, login, lookup, and profile mutation.
type UserService struct {
	users     repository.UserRepository
	issuer    *TokenIssuer
	passwords *auth.PasswordService
	uploader  upload.Uploader
	logger    *slog.Logger
}

// NewUserService creates a UserService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewUserService(
	users repository.UserRepository,
	issuer *TokenIssuer,
	passwords *auth.PasswordService,
	uploader upload.Uploader,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		issuer:    issuer,
		passwords: passwords,
		uploader:  uploader,
		logger:    logger,
	}
}

// SignUp registers a new identity and issues its first token pair.
//
// FLOW (order matters):
//  1. Existence pre-check by email → Conflict if taken. Nothing has been
//     written yet at this point.
//  2. bcrypt-hash the password (fresh per-record salt, slow by design).
//  3. Insert the identity. The store's UNIQUE index catches the race where
//     two concurrent sign-ups both passed step 1 — that also comes back as
//     Conflict.
//  4. Strip the password hash from the in-memory result. From here on the
//     object is safe to hand to anyone.
//  5. Issue and persist the token pair.
//
// NO ROLLBACK:
// A failure after step 3 leaves the inserted row in place and surfaces as a
// generic internal error. That's accepted: an identity without a token pair
// is harmless — the next login re-issues one.
func (s *UserService) SignUp(ctx context.Context, email, nickname, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	nickname = strings.TrimSpace(nickname)

	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("useremail", "a valid email is required")
	}
	if nickname == "" {
		return nil, apperror.ValidationFailed("nickname", "nickname is required")
	}
	if len(nickname) > MaxNicknameLength {
		return nil, apperror.ValidationFailed("nickname",
			fmt.Sprintf("nickname must be %d characters or less", MaxNicknameLength))
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	// Step 1: existence pre-check
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperror.Conflict("email already exists")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		s.logger.Error("sign-up: email lookup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("failed to create user")
	}

	// Step 2: hash the password
	hash, err := s.passwords.Hash(password)
	if err != nil {
		s.logger.Error("sign-up: hashing failed", slog.String("error", err.Error()))
		return nil, apperror.Internal("failed to create user")
	}

	// Step 3: persist the identity
	user := &model.User{
		Email:    email,
		Nickname: nickname,
		Password: hash,
		IsFirst:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Lost the race against a concurrent sign-up with the same email
			return nil, apperror.Conflict("email already exists")
		}
		s.logger.Error("sign-up: insert failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("failed to create user")
	}

	// Step 4: the hash must never be echoed to a caller
	user.Sanitize()

	// Step 5: first session
	if _, err := s.issuer.IssueTokenPair(ctx, user); err != nil {
		// The identity row stays — no rollback. The next login will issue
		// a fresh pair.
		s.logger.Error("sign-up: token issuance failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("failed to create user")
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("nickname", user.Nickname),
	)

	return user, nil
}

// Login verifies credentials and issues a fresh token pair, overwriting the
// previous one.
//
// Unknown email and wrong password are indistinguishable to the caller —
// both are Unauthorized with the same message, so login attempts can't be
// used to probe which emails are registered.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		s.logger.Error("login: email lookup failed", slog.String("error", err.Error()))
		return nil, apperror.Internal("login failed")
	}

	if err := s.passwords.Verify(user.Password, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	pair, err := s.issuer.IssueTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("login: token issuance failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("login failed")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return pair, nil
}

// FindByEmail returns the identity for the given email.
//
// PRESERVED POLICY:
// A missing identity fails with Unauthorized — not NotFound. Lookups here are
// always on behalf of an authenticated caller resolving their own account, so
// "your email isn't in the table" means the session is for an account that no
// longer exists, and the client treats 401 as "sign in again".
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("could not find user")
		}
		s.logger.Error("user lookup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("user lookup failed")
	}
	return user, nil
}

// UpdateThumbnail stores a new avatar image and persists its reference on the
// caller's identity.
//
// The caller is re-resolved by email rather than trusted from its own view of
// the identity — the token may be older than the latest profile state.
//
// COLLAPSED FAILURES:
// "identity not found", upload failure, and persistence failure are all
// reported to the caller as the same generic internal error. They are
// distinguishable in the logs, deliberately not on the wire.
func (s *UserService) UpdateThumbnail(ctx context.Context, email, filename string, file io.Reader) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("thumbnail update: user lookup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("failed to save the user thumbnail")
	}

	imageURL, err := s.uploader.Upload(ctx, user.ID, filename, file)
	if err != nil {
		s.logger.Error("thumbnail update: upload failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("failed to save the user thumbnail")
	}

	user.Thumbnail = imageURL
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("thumbnail update: persist failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Internal("failed to save the user thumbnail")
	}

	s.logger.Info("thumbnail updated",
		slog.String("userID", user.ID),
		slog.String("thumbnail", imageURL),
	)

	// Password hash, previous hash, soft-delete timestamp, and birthday
	// visibility flag are never safe to expose
	return user.Sanitize(), nil
}

// CompleteTutorial marks onboarding as done for the given email.
// Idempotent: completing twice is a no-op success, the flag stays cleared.
func (s *UserService) CompleteTutorial(ctx context.Context, email string) (string, error) {
	if err := s.users.MarkTutorialComplete(ctx, email); err != nil {
		s.logger.Error("tutorial completion failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return "", apperror.Internal("user tutorial status update failed")
	}

	return "user has proceeded the tutorial", nil
}

// LoginOrRegisterKakao handles the Kakao OAuth callback: upsert the identity
// by the email Kakao reports, then issue a token pair.
//
// First-time Kakao users get an account with a random (unusable) password —
// the hash invariant holds, but nobody can log in with it through the
// password flow. Returning users just get a fresh pair.
func (s *UserService) LoginOrRegisterKakao(ctx context.Context, kUser *auth.KakaoUser) (*model.User, *model.TokenPair, error) {
	if kUser == nil {
		return nil, nil, fmt.Errorf("service/user: Kakao user must not be nil")
	}

	email := kUser.Account.Email

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// Existing account — nothing to update, Kakao is just a door in

	case errors.Is(err, apperror.ErrNotFound):
		// First Kakao login → register
		hash, hashErr := s.passwords.Hash(xid.New().String())
		if hashErr != nil {
			return nil, nil, apperror.Internal("failed to create user")
		}

		nickname := kUser.Account.Profile.Nickname
		if nickname == "" {
			nickname = strings.SplitN(email, "@", 2)[0]
		}

		user = &model.User{
			Email:     email,
			Nickname:  nickname,
			Password:  hash,
			Thumbnail: kUser.Account.Profile.Thumbnail,
			IsFirst:   true,
		}
		if createErr := s.users.Create(ctx, user); createErr != nil {
			if errors.Is(createErr, apperror.ErrConflict) {
				return nil, nil, apperror.Conflict("email already exists")
			}
			s.logger.Error("kakao sign-up: insert failed",
				slog.String("email", email),
				slog.String("error", createErr.Error()),
			)
			return nil, nil, apperror.Internal("failed to create user")
		}

		s.logger.Info("user signed up via Kakao",
			slog.String("userID", user.ID),
			slog.Int64("kakaoID", kUser.ID),
		)

	default:
		s.logger.Error("kakao login: email lookup failed", slog.String("error", err.Error()))
		return nil, nil, apperror.Internal("login failed")
	}

	pair, err := s.issuer.IssueTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("kakao login: token issuance failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, nil, apperror.Internal("login failed")
	}

	return user.Sanitize(), pair, nil
}
