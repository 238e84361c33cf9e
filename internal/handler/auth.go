package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/togather-app/togather/internal/auth"
	"github.com/togather-app/togather/internal/model"
	"github.com/togather-app/togather/internal/service"
)

// AuthHandler manages sign-up, login, and the current-user lookup.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignUp        → register a new identity, return it sanitized
//   - HandleLogin         → verify credentials, return a fresh token pair
//   - HandleAll           → return the authenticated identity with its calendar envelope
//   - HandleKakaoLogin    → redirect the browser to Kakao's authorization page
//   - HandleKakaoCallback → receive the code, exchange it, upsert, issue tokens
//
// The handler only parses requests and writes responses. Every business
// decision (uniqueness, hashing, issuance, sanitisation) lives in the
// service layer.
type AuthHandler struct {
	users  *service.UserService
	kakao  *auth.KakaoProvider
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(users *service.UserService, kakao *auth.KakaoProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		kakao:  kakao,
		logger: logger,
	}
}

// signUpRequest is the expected body for POST /auth/signup.
type signUpRequest struct {
	Email    string `json:"useremail"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// loginRequest is the expected body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"useremail"`
	Password string `json:"password"`
}

// HandleSignUp registers a new identity.
//
// HTTP: POST /auth/signup
// REQUEST BODY: {"useremail": "...", "nickname": "...", "password": "..."}
//
// RESPONSES:
//
//	201 → the created identity, sanitized (no password hash)
//	400 → validation failure
//	409 → email already registered (pre-check or lost insert race)
//	500 → hashing, insert, or token issuance failure
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("sign-up: invalid JSON body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	user, err := h.users.SignUp(r.Context(), req.Email, req.Nickname, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin verifies credentials and returns a fresh token pair.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"useremail": "...", "password": "..."}
//
// RESPONSES:
//
//	200 → {"accessToken": "...", "refreshToken": "..."}
//	401 → unknown email OR wrong password (deliberately the same response)
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("login: invalid JSON body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	pair, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// HandleAll returns the authenticated identity wrapped in a one-element array,
// with the nested calendar envelope attached.
//
// HTTP: GET /auth/all
// Auth: Required (RequireAuth middleware sets the identity in context)
//
// RESPONSE SHAPE:
//
//	[
//	  {
//	    "id": "...", "useremail": "...", "nickname": "...",
//	    "userCalendarId": {"id": "...", "socialEvents": [], "groupCalendar": []}
//	  }
//	]
//
// The array wrapper and the envelope exist because the frontend's first
// render destructures exactly this shape. Calendar contents are owned by the
// calendar subsystem; this endpoint always returns them empty.
func (h *AuthHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.users.FindByEmail(r.Context(), identity.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	// Attach the (empty) calendar envelope, then strip sensitive fields.
	// The envelope is keyed to the identity.
	user.UserCalendar = model.EmptyUserCalendar(user.ID)
	user.Sanitize()

	writeJSON(w, http.StatusOK, []*model.User{user})
}

// HandleKakaoLogin redirects the user to Kakao's authorization page.
//
// HTTP: GET /auth/kakao/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When Kakao calls back, HandleKakaoCallback verifies the state matches.
// This proves the callback was initiated by this server, not a CSRF attacker.
func (h *AuthHandler) HandleKakaoLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.kakao.AuthURL(state), http.StatusTemporaryRedirect)
}

// kakaoLoginResponse is the body returned by the Kakao callback: the
// sanitized identity plus the freshly issued pair, flattened so the client
// can pick up the tokens the same way it does after a password login.
type kakaoLoginResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// HandleKakaoCallback completes the Kakao OAuth login flow.
//
// HTTP: GET /auth/kakao/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a Kakao user profile
//  3. Upsert the identity by the email Kakao reports
//  4. Issue a token pair and return it with the sanitized identity
func (h *AuthHandler) HandleKakaoCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("kakao callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("kakao callback: state mismatch",
			slog.String("expected", stateCookie.Value),
			slog.String("got", r.URL.Query().Get("state")),
		)
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Clear the state cookie — it's single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// User denied authorization on the Kakao consent screen
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("kakao callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange code for Kakao user profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	kUser, err := h.kakao.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("kakao callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// --- Steps 3–4: Upsert and issue ---
	user, pair, err := h.users.LoginOrRegisterKakao(r.Context(), kUser)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, kakaoLoginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
