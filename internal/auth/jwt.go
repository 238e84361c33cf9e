// Package auth provides JWT token generation and validation plus password
// hashing for the identity API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. POST /auth/signup creates the account and issues an access/refresh pair
// 2. POST /auth/login verifies credentials and issues a fresh pair
//    (overwriting whatever pair the account held before)
// 3. The web client keeps the access token in session storage and sends it
//    as "Authorization: Bearer <token>" on every request except login/signup
// 4. RequireAuth middleware validates the token and puts the caller's
//    identity (user ID + email) into the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data to validate a request. All the information needed (who, until when) is
// inside the signed token. The signature ensures nobody can tamper with it
// without the secret key.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","email":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server can verify the signature without any DB lookup — just the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "togather"

// Token lifetimes. The web client persists the access token for an hour of
// session storage; the refresh token outlives it by two months so a returning
// user can be re-issued an access token without typing a password again.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 60 * 24 * time.Hour
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations — keep it safe, rotate it
// periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
//
// "sub" (Subject) carries the internal user ID — the standard claim for
// identifying who the token belongs to. The email rides along as a custom
// claim because the identity service re-resolves the caller by email on
// profile mutations (defence against a stale caller context).
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Identity is what Validate hands back to the middleware: the two fields of
// the caller's context the rest of the request pipeline works with.
type Identity struct {
	UserID string
	Email  string
}

// GenerateAccess creates and signs an access token for the given user.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple — good for single-server deployments
// - Use RS256 if you ever need multiple verifiers without sharing the secret
func (s *TokenService) GenerateAccess(userID, email string) (string, error) {
	return s.generate(userID, email, AccessTokenTTL)
}

// GenerateRefresh creates and signs a refresh token for the given user.
// Same shape as the access token, much longer expiry.
func (s *TokenService) GenerateRefresh(userID, email string) (string, error) {
	return s.generate(userID, email, RefreshTokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, error) {
	return s.generate(userID, email, d)
}

func (s *TokenService) generate(userID, email string, d time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
		Email: email,
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string.
// Returns the identity it encodes if the token is valid.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods prevents this.
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HS256
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Translate jwt library errors into cleaner messages
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &Identity{UserID: c.Subject, Email: c.Email}, nil
}
