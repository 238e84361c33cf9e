package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "identity", id), ANY package that knows the string
// can read or shadow your value. Using a package-private type prevents
// collisions: only THIS package can create a key of type contextKey, so only
// this package can read or write identity values in the context.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, validates
// it, and stores the caller's identity in the request context. If the token is
// missing or invalid, it returns 401 Unauthorized and stops the request chain.
//
// WHY A HEADER AND NOT A COOKIE?
// The web client keeps the access token in session-scoped storage and attaches
// the Bearer header itself on every call except login/signup. Session storage
// dies with the tab, which is the session lifetime this app wants; the 401
// response is the client's signal to clear its session and send the user back
// to the sign-in page.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := extractIdentity(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			// Store the identity in context so handlers can read it
			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated caller from the request
// context.
//
// Returns (nil, false) if the request is anonymous (no valid token present).
//
// Usage in handlers:
//
//	ident, ok := auth.IdentityFromContext(r.Context())
//	if !ok {
//	    // should not happen behind RequireAuth, but be safe
//	}
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*Identity)
	return ident, ok && ident != nil
}

// extractIdentity reads the Bearer token from the Authorization header and
// validates it.
func extractIdentity(r *http.Request, tokens *TokenService) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("auth: missing Authorization header")
	}

	// "Bearer <token>" — the scheme comparison is case-insensitive per RFC 6750.
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, fmt.Errorf("auth: malformed Authorization header")
	}

	return tokens.Validate(strings.TrimSpace(token))
}
