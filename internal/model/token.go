package model

// TokenPair is the access/refresh credential pair issued for one session.
//
// Exactly one pair is attached to a user at a time — a new login overwrites
// the previous pair on the users row (no multi-session tracking). The pair is
// stored inline on the user record rather than in its own table because it
// has no independent lifecycle.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
