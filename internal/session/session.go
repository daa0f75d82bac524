// package session implements server-memoryless Spotify sessions sealed into client-held cookies.
package session

import "time"

// ActiveBuffer guards against the token expiring between the activity check and its use.
const ActiveBuffer = 15 * time.Second

// Session holds a Spotify bearer credential and its absolute expiry.
//
// The server keeps no copy; the client holds the sealed form produced by [Codec.Seal].
type Session struct {
	AccessToken string `json:"accessToken"`
	ExpiresAtMs int64  `json:"expiresAtMs"`
}

// NewSession builds a Session from a token exchange result.
func NewSession(accessToken string, expiresIn time.Duration, now time.Time) Session {
	return Session{
		AccessToken: accessToken,
		ExpiresAtMs: now.Add(expiresIn).UnixMilli(),
	}
}

// Active reports whether the session's credential is usable at the given instant.
//
// A session within [ActiveBuffer] of expiry counts as inactive.
func (s Session) Active(now time.Time) bool {
	if s.AccessToken == "" {
		return false
	}
	return s.ExpiresAtMs > now.Add(ActiveBuffer).UnixMilli()
}
