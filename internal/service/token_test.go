package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/togather-app/togather/internal/auth"
	"github.com/togather-app/togather/internal/model"
)

func newTestTokenIssuer(t *testing.T, repo *fakeUserRepo) *TokenIssuer {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewTokenIssuer(repo, ts, logger)
}

func seedUser(t *testing.T, repo *fakeUserRepo, email string) *model.User {
	t.Helper()

	user := &model.User{Email: email, Nickname: "tester", Password: "hash", IsFirst: true}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func TestIssueTokenPair_PersistsBothTokens(t *testing.T) {
	repo := newFakeUserRepo()
	issuer := newTestTokenIssuer(t, repo)
	user := seedUser(t, repo, "alice@example.com")

	pair, err := issuer.IssueTokenPair(context.Background(), user)
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("IssueTokenPair() returned an incomplete pair")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("access and refresh tokens should not be identical")
	}

	stored := repo.users[user.ID]
	if stored.AccessToken != pair.AccessToken {
		t.Error("access token was not persisted onto the user row")
	}
	if stored.RefreshToken != pair.RefreshToken {
		t.Error("refresh token was not persisted onto the user row")
	}
}

func TestIssueTokenPair_TokensValidateBackToIdentity(t *testing.T) {
	repo := newFakeUserRepo()
	issuer := newTestTokenIssuer(t, repo)
	user := seedUser(t, repo, "alice@example.com")

	pair, err := issuer.IssueTokenPair(context.Background(), user)
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	for name, token := range map[string]string{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	} {
		identity, err := ts.Validate(token)
		if err != nil {
			t.Fatalf("Validate(%s) error = %v", name, err)
		}
		if identity.UserID != user.ID {
			t.Errorf("%s token UserID = %q, want %q", name, identity.UserID, user.ID)
		}
		if identity.Email != user.Email {
			t.Errorf("%s token Email = %q, want %q", name, identity.Email, user.Email)
		}
	}
}

func TestIssueTokenPair_PersistFailureReturnsNoPair(t *testing.T) {
	repo := newFakeUserRepo()
	issuer := newTestTokenIssuer(t, repo)
	user := seedUser(t, repo, "alice@example.com")

	repo.saveTokensErr = errors.New("disk full")

	// Both-or-neither: if the pair can't be persisted, the caller gets no
	// pair at all.
	pair, err := issuer.IssueTokenPair(context.Background(), user)
	if err == nil {
		t.Fatal("IssueTokenPair() should fail when persistence fails")
	}
	if pair != nil {
		t.Errorf("IssueTokenPair() returned a pair despite persistence failure: %+v", pair)
	}

	stored := repo.users[user.ID]
	if stored.AccessToken != "" || stored.RefreshToken != "" {
		t.Error("no token should be recorded when persistence fails")
	}
}

func TestIssueTokenPair_UnknownUser(t *testing.T) {
	repo := newFakeUserRepo()
	issuer := newTestTokenIssuer(t, repo)

	ghost := &model.User{ID: "nope", Email: "ghost@example.com"}
	if _, err := issuer.IssueTokenPair(context.Background(), ghost); err == nil {
		t.Fatal("IssueTokenPair() should fail for an identity that is not stored")
	}
}
