package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Kakao's OAuth endpoints. x/oauth2 ships predefined endpoints for the big
// western providers only, so we spell these out ourselves.
// Docs: https://developers.kakao.com/docs/latest/en/kakaologin/rest-api
var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

const kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

// KakaoUser is the portion of the Kakao /v2/user/me response we care about.
// Kakao nests profile data under kakao_account; we only unmarshal what the
// identity service needs to upsert an account.
type KakaoUser struct {
	ID      int64 `json:"id"` // Kakao's numeric user ID — stable, never changes
	Account struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname  string `json:"nickname"`
			Thumbnail string `json:"thumbnail_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// KakaoProvider wraps golang.org/x/oauth2 for the Kakao Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
// 1. Your server redirects the user to Kakao's authorization endpoint,
//    with your ClientID and the requested scopes.
// 2. The user approves (or denies) the authorization request on Kakao.
// 3. Kakao redirects back to your CallbackURL with a short-lived "code".
// 4. Your server exchanges the code for an access token (server-to-server call).
// 5. Your server uses the access token to call the Kakao API for user info.
//
// WHY SERVER-SIDE EXCHANGE?
// The code-for-token exchange happens server-to-server, using your ClientSecret.
// Kakao's access token never touches the client's browser — only our own JWT
// pair does, issued after the upsert.
type KakaoProvider struct {
	config *oauth2.Config
}

// NewKakaoProvider creates a KakaoProvider with the given credentials.
//
// You get the client ID (Kakao calls it a "REST API key") and secret from
// the Kakao developer console. callbackURL must exactly match a redirect URI
// registered there. Example: "http://localhost:8080/auth/kakao/callback"
func NewKakaoProvider(clientID, clientSecret, callbackURL string) *KakaoProvider {
	return &KakaoProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"account_email", "profile_nickname", "profile_image"},
			Endpoint:     kakaoEndpoint,
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// STATE PARAMETER:
// The state is a random string we generate and store in a cookie before
// redirecting. When Kakao calls back, we verify the returned state matches
// our cookie. This prevents CSRF attacks where an attacker tricks your
// browser into completing an OAuth flow for their account.
func (p *KakaoProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// Kakao user profile. This is the core of the callback handler.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. Use the token to call Kakao's /v2/user/me endpoint
//  3. Unmarshal the response into a KakaoUser struct
//
// The returned KakaoUser is used by the identity service to upsert the user
// by email and then issue our own token pair.
func (p *KakaoProvider) Exchange(ctx context.Context, code string) (*KakaoUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that automatically adds
	// the "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(kakaoUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Kakao user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Kakao user API returned status %d", resp.StatusCode)
	}

	var kUser KakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&kUser); err != nil {
		return nil, fmt.Errorf("auth: decoding Kakao user response: %w", err)
	}

	if kUser.ID == 0 {
		return nil, fmt.Errorf("auth: Kakao returned an invalid user (ID = 0)")
	}
	if kUser.Account.Email == "" {
		// Email is the login key for this app — an account without one
		// cannot be linked to an identity.
		return nil, fmt.Errorf("auth: Kakao account has no email consented")
	}

	return &kUser, nil
}
