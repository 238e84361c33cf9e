package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService for testing.
// It uses a fixed, known secret so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// TOKEN SERVICE CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_ValidSecret(t *testing.T) {
	_, err := NewTokenService("this-is-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
}

// =========================================================================
// GENERATE TESTS
// =========================================================================

func TestGenerateAccess_ReturnsNonEmptyToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAccess("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateAccess() error = %v", err)
	}
	if token == "" {
		t.Error("GenerateAccess() returned empty token")
	}

	// JWT tokens have 3 dot-separated parts: header.payload.signature
	if parts := strings.Count(token, "."); parts != 2 {
		t.Errorf("GenerateAccess() token doesn't look like a JWT (expected 2 dots, got %d)", parts)
	}
}

func TestGenerate_AccessAndRefreshDiffer(t *testing.T) {
	ts := newTestTokenService(t)

	access, err := ts.GenerateAccess("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateAccess() error = %v", err)
	}
	refresh, err := ts.GenerateRefresh("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateRefresh() error = %v", err)
	}

	// Different expiries → different payloads → different tokens
	if access == refresh {
		t.Error("access and refresh tokens should not be identical")
	}
}

func TestGenerate_DifferentUsersGetDifferentTokens(t *testing.T) {
	ts := newTestTokenService(t)

	token1, _ := ts.GenerateAccess("user-aaa", "a@example.com")
	token2, _ := ts.GenerateAccess("user-bbb", "b@example.com")

	if token1 == token2 {
		t.Error("GenerateAccess() returned identical tokens for different users")
	}
}

// =========================================================================
// VALIDATE TESTS
// =========================================================================

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAccess("user-abc-123", "alice@example.com")
	if err != nil {
		t.Fatalf("GenerateAccess() error = %v", err)
	}

	// Validate should return the exact identity we put in
	ident, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if ident.UserID != "user-abc-123" {
		t.Errorf("Validate() UserID = %q, want %q", ident.UserID, "user-abc-123")
	}
	if ident.Email != "alice@example.com" {
		t.Errorf("Validate() Email = %q, want %q", ident.Email, "alice@example.com")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	// Generate a token that expired 1 second ago
	token, err := ts.GenerateWithDuration("user-123", "alice@example.com", -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	_, err = ts.Validate(token)
	if err == nil {
		t.Fatal("Validate() should return an error for an expired token")
	}
	t.Logf("Expired token error (expected): %v", err)
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.GenerateAccess("user-123", "alice@example.com")

	// Flip a character in the signature (last segment after the 2nd dot)
	tampered := token[:len(token)-2] + "xx"

	_, err := ts.Validate(tampered)
	if err == nil {
		t.Fatal("Validate() should reject a token with a tampered signature")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("a-completely-different-secret!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _ := ts.GenerateAccess("user-123", "alice@example.com")

	if _, err := other.Validate(token); err == nil {
		t.Fatal("Validate() should reject a token signed with a different secret")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	if _, err := ts.Validate("not-a-jwt-at-all"); err == nil {
		t.Fatal("Validate() should reject a non-JWT string")
	}
}
