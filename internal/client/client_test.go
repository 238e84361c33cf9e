package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newAPIServer fakes just enough of the identity API for client tests. Each
// route checks what the real server checks (method, Bearer header) and
// serves canned payloads.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("signup body did not decode: %v", err)
		}
		if req["useremail"] == "taken@example.com" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "conflict",
				"message": "email already exists",
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"userId":    "u1",
			"useremail": req["useremail"],
			"nickname":  req["nickname"],
			"isFirst":   true,
		})
	})

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "pw123" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "unauthorized",
				"message": "invalid email or password",
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "access-abc",
			"refreshToken": "refresh-xyz",
		})
	})

	requireBearer := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer access-abc" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "unauthorized",
				"message": "valid authentication required",
			})
			return false
		}
		return true
	}

	mux.HandleFunc("/auth/all", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{{
			"userId":    "u1",
			"useremail": "alice@example.com",
			"nickname":  "alice",
			"isFirst":   false,
			"userCalendarId": map[string]any{
				"userCalendarId": "u1",
				"socialEvents": []map[string]any{
					{"socialEventId": "s1", "title": "concert"},
				},
				"groupCalendar": []map[string]any{
					{
						"calendarId": "g1",
						"title":      "friends",
						"groupEvents": []map[string]any{
							{"groupEventId": "e1", "title": "dinner"},
							{"groupEventId": "e2", "title": "trip"},
						},
					},
					{
						"calendarId": "g2",
						"title":      "work",
						"groupEvents": []map[string]any{
							{"groupEventId": "e3", "title": "standup"},
						},
					},
				},
			},
		}})
	})

	mux.HandleFunc("/auth/user/tutorial", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "user has proceeded the tutorial",
		})
	})

	mux.HandleFunc("/auth/user/thumbnail", func(w http.ResponseWriter, r *http.Request) {
		if !requireBearer(w, r) {
			return
		}
		if _, _, err := r.FormFile("thumbnail"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"userId":    "u1",
			"useremail": "alice@example.com",
			"nickname":  "alice",
			"thumbnail": "/uploads/thumbnails/new.png",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_LogIn(t *testing.T) {
	srv := newAPIServer(t)
	session := NewSessionStore()
	api := New(srv.URL, session)

	t.Run("stores only the access token", func(t *testing.T) {
		if err := api.LogIn(context.Background(), "alice@example.com", "pw123"); err != nil {
			t.Fatalf("LogIn() error = %v", err)
		}
		if got := session.Token(); got != "access-abc" {
			t.Errorf("session token = %q, want %q", got, "access-abc")
		}
	})

	t.Run("failed login surfaces the server message verbatim", func(t *testing.T) {
		err := api.LogIn(context.Background(), "alice@example.com", "wrong")
		if err == nil {
			t.Fatal("LogIn() with a wrong password should fail")
		}
		if err.Error() != "invalid email or password" {
			t.Errorf("error message = %q, want the server's text verbatim", err.Error())
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error type = %T, want *APIError", err)
		}
		if apiErr.Status != http.StatusUnauthorized {
			t.Errorf("Status = %d, want 401", apiErr.Status)
		}
	})

	t.Run("failed login does not clear an existing session", func(t *testing.T) {
		session.Set("access-abc")
		_ = api.LogIn(context.Background(), "alice@example.com", "wrong")
		if session.Token() != "access-abc" {
			t.Error("a rejected login attempt must not sign the user out")
		}
	})
}

func TestClient_SignUp(t *testing.T) {
	srv := newAPIServer(t)
	api := New(srv.URL, NewSessionStore())

	t.Run("success", func(t *testing.T) {
		user, err := api.SignUp(context.Background(), "alice@example.com", "alice", "pw123")
		if err != nil {
			t.Fatalf("SignUp() error = %v", err)
		}
		if user.Nickname != "alice" {
			t.Errorf("Nickname = %q, want %q", user.Nickname, "alice")
		}
	})

	t.Run("conflict surfaces the server message", func(t *testing.T) {
		_, err := api.SignUp(context.Background(), "taken@example.com", "alice", "pw123")
		if err == nil || err.Error() != "email already exists" {
			t.Errorf("error = %v, want the conflict message verbatim", err)
		}
	})
}

func TestClient_SessionEnforcement(t *testing.T) {
	srv := newAPIServer(t)

	t.Run("missing token short-circuits and redirects", func(t *testing.T) {
		redirected := false
		api := New(srv.URL, NewSessionStore(), WithRedirectHook(func() { redirected = true }))

		_, err := api.FetchCurrentUser(context.Background())
		if !errors.Is(err, ErrSignedOut) {
			t.Fatalf("error = %v, want ErrSignedOut", err)
		}
		if !redirected {
			t.Error("the redirect hook should fire when no token is stored")
		}
	})

	t.Run("rejected token clears the session and redirects", func(t *testing.T) {
		redirected := false
		session := NewSessionStore()
		session.Set("stale-token")
		api := New(srv.URL, session, WithRedirectHook(func() { redirected = true }))

		_, err := api.FetchCurrentUser(context.Background())
		if !errors.Is(err, ErrSignedOut) {
			t.Fatalf("error = %v, want ErrSignedOut", err)
		}
		if session.Token() != "" {
			t.Error("a 401 must clear the stored token")
		}
		if !redirected {
			t.Error("a 401 must fire the redirect hook")
		}
	})
}

func TestClient_Bootstrap(t *testing.T) {
	srv := newAPIServer(t)
	session := NewSessionStore()
	session.Set("access-abc")
	api := New(srv.URL, session)

	stores := NewStores()
	if err := api.Bootstrap(context.Background(), stores); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	user := stores.UserInfo.UserInfo()
	if user == nil || user.Email != "alice@example.com" {
		t.Fatalf("user-info store not populated, got %+v", user)
	}

	// The merged view is the default
	if got := stores.NowCalendar.NowCalendar(); got != "All" {
		t.Errorf("NowCalendar = %q, want %q", got, "All")
	}

	// Group events are flattened across both group calendars, in order
	events := stores.GroupEvents.GroupEvents()
	if len(events) != 3 {
		t.Fatalf("group events = %d, want 3 (flattened across calendars)", len(events))
	}
	gotIDs := []string{events[0].ID, events[1].ID, events[2].ID}
	wantIDs := []string{"e1", "e2", "e3"}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Errorf("group event IDs = %v, want %v", gotIDs, wantIDs)
			break
		}
	}

	if social := stores.SocialEvents.SocialEvents(); len(social) != 1 || social[0].ID != "s1" {
		t.Errorf("social events = %+v, want the single s1 event", social)
	}
}

func TestClient_UpdateThumbnail(t *testing.T) {
	srv := newAPIServer(t)
	session := NewSessionStore()
	session.Set("access-abc")
	api := New(srv.URL, session)

	user, err := api.UpdateThumbnail(context.Background(), "avatar.png", strings.NewReader("fake-png"))
	if err != nil {
		t.Fatalf("UpdateThumbnail() error = %v", err)
	}
	if user.Thumbnail != "/uploads/thumbnails/new.png" {
		t.Errorf("Thumbnail = %q, want the server-assigned reference", user.Thumbnail)
	}
}

func TestClient_CompleteTutorial(t *testing.T) {
	srv := newAPIServer(t)
	session := NewSessionStore()
	session.Set("access-abc")
	api := New(srv.URL, session)

	msg, err := api.CompleteTutorial(context.Background())
	if err != nil {
		t.Fatalf("CompleteTutorial() error = %v", err)
	}
	if msg != "user has proceeded the tutorial" {
		t.Errorf("message = %q, want the server confirmation verbatim", msg)
	}
}
