package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/togather-app/togather/internal/model"
)

// ErrSignedOut is returned when a request needed a session and there wasn't
// one — either the store was empty, or the server answered 401 and the
// session was cleared. Callers check it with errors.Is and send the user to
// the sign-in page; the Client has already invoked the redirect hook by the
// time this error is returned.
var ErrSignedOut = errors.New("client: signed out")

// APIError carries the server's error payload. The Message is the exact text
// the server sent — the view layer surfaces it verbatim.
type APIError struct {
	Status  int    // HTTP status code
	Kind    string // machine-readable error type, e.g. "conflict"
	Message string // human-readable, shown to the user as-is
}

func (e *APIError) Error() string {
	return e.Message
}

// Client is the typed HTTP client for the identity API.
//
// SESSION HANDLING:
// Every request except sign-up and login reads the access token from the
// SessionStore and attaches it as a Bearer header. A missing token, or a 401
// answer, clears the session and fires the redirect hook — the analogue of
// the frontend forcing navigation back to the sign-in page.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *SessionStore

	// redirect is called (at most once per failed request) when the session
	// turns out to be absent or rejected. Defaults to a no-op.
	redirect func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client (tests, custom
// timeouts, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRedirectHook sets the function invoked when the session is missing or
// rejected — typically "navigate to /signin".
func WithRedirectHook(fn func()) Option {
	return func(c *Client) { c.redirect = fn }
}

// New creates a Client for the API at baseURL, holding its session in the
// given store.
func New(baseURL string, session *SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    session,
		redirect:   func() {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// signOut clears the session and fires the redirect hook.
func (c *Client) signOut() {
	c.session.Clear()
	c.redirect()
}

// decodeError turns a non-2xx response into an *APIError, handling the 401
// case (dead session) along the way.
func (c *Client) decodeError(res *http.Response) error {
	if res.StatusCode == http.StatusUnauthorized {
		c.signOut()
		return fmt.Errorf("%w: %s", ErrSignedOut, res.Status)
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.Message == "" {
		return &APIError{Status: res.StatusCode, Message: res.Status}
	}
	return &APIError{Status: res.StatusCode, Kind: body.Error, Message: body.Message}
}

// doAuthed sends a request with the Bearer header attached. ErrSignedOut
// before the request even leaves if there is no stored token.
func (c *Client) doAuthed(req *http.Request) (*http.Response, error) {
	token := c.session.Token()
	if token == "" {
		c.signOut()
		return nil, ErrSignedOut
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.httpClient.Do(req)
}

// SignUp registers a new account. No session is involved — the caller signs
// in afterwards.
func (c *Client) SignUp(ctx context.Context, email, nickname, password string) (*model.User, error) {
	payload, err := json.Marshal(map[string]string{
		"useremail": email,
		"nickname":  nickname,
		"password":  password,
	})
	if err != nil {
		return nil, fmt.Errorf("client: encoding sign-up body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/signup", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("client: building sign-up request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: sign-up request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		return nil, c.decodeError(res)
	}

	var user model.User
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("client: decoding sign-up response: %w", err)
	}
	return &user, nil
}

// LogIn verifies credentials and stores the access token in the session.
//
// The server also returns a refresh token; it is intentionally dropped here —
// only the access token is persisted client-side.
func (c *Client) LogIn(ctx context.Context, email, password string) error {
	payload, err := json.Marshal(map[string]string{
		"useremail": email,
		"password":  password,
	})
	if err != nil {
		return fmt.Errorf("client: encoding login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("client: building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: login request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		// A failed login is not a dead session; surface the server's
		// message without touching the store.
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.Message == "" {
			return &APIError{Status: res.StatusCode, Message: res.Status}
		}
		return &APIError{Status: res.StatusCode, Kind: body.Error, Message: body.Message}
	}

	var pair model.TokenPair
	if err := json.NewDecoder(res.Body).Decode(&pair); err != nil {
		return fmt.Errorf("client: decoding login response: %w", err)
	}

	c.session.Set(pair.AccessToken)
	return nil
}

// FetchCurrentUser returns the signed-in user's profile with its calendar
// envelope, as served by GET /auth/all.
func (c *Client) FetchCurrentUser(ctx context.Context) (*model.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/all", nil)
	if err != nil {
		return nil, fmt.Errorf("client: building current-user request: %w", err)
	}

	res, err := c.doAuthed(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, c.decodeError(res)
	}

	// The payload is a one-element array — the shape the first render
	// destructures.
	var users []*model.User
	if err := json.NewDecoder(res.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("client: decoding current-user response: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("client: current-user response was empty")
	}
	return users[0], nil
}

// UpdateThumbnail uploads a new avatar image and returns the updated profile.
func (c *Client) UpdateThumbnail(ctx context.Context, filename string, image io.Reader) (*model.User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("thumbnail", filename)
	if err != nil {
		return nil, fmt.Errorf("client: building multipart body: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("client: reading image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: finishing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/auth/user/thumbnail", &buf)
	if err != nil {
		return nil, fmt.Errorf("client: building thumbnail request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.doAuthed(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, c.decodeError(res)
	}

	var user model.User
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("client: decoding thumbnail response: %w", err)
	}
	return &user, nil
}

// CompleteTutorial marks onboarding as done and returns the server's
// confirmation message.
func (c *Client) CompleteTutorial(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/auth/user/tutorial", nil)
	if err != nil {
		return "", fmt.Errorf("client: building tutorial request: %w", err)
	}

	res, err := c.doAuthed(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", c.decodeError(res)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("client: decoding tutorial response: %w", err)
	}
	return body.Message, nil
}

// Bootstrap runs the first-render flow: fetch the current user and fan the
// payload out into the view-layer stores.
//
//  1. The profile goes into the user-info store.
//  2. The calendar view defaults to "All" (the merged view).
//  3. Group events are flattened across all group calendars into one list.
//  4. Social events are copied over as-is.
func (c *Client) Bootstrap(ctx context.Context, stores *Stores) error {
	user, err := c.FetchCurrentUser(ctx)
	if err != nil {
		return err
	}

	stores.UserInfo.SetUserInfo(user)
	stores.NowCalendar.SetNowCalendar("All")

	groupEvents := []model.GroupEvent{}
	socialEvents := []model.SocialEvent{}
	if user.UserCalendar != nil {
		for _, gc := range user.UserCalendar.GroupCalendars {
			groupEvents = append(groupEvents, gc.GroupEvents...)
		}
		socialEvents = append(socialEvents, user.UserCalendar.SocialEvents...)
	}
	stores.GroupEvents.SetGroupEvents(groupEvents)
	stores.SocialEvents.SetSocialEvents(socialEvents)

	return nil
}
