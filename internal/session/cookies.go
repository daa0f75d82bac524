package session

import (
	"net/http"
)

// Cookies reads and writes the sealed session and OAuth transaction cookies.
//
// Cookie names are derived from a configurable prefix so multiple deployments
// can share a domain.
type Cookies struct {
	codec  *Codec
	prefix string
	secure bool
}

// NewCookies creates a cookie helper around the given codec.
//
// An empty prefix defaults to "moodlist".
func NewCookies(codec *Codec, prefix string, secure bool) *Cookies {
	if prefix == "" {
		prefix = "moodlist"
	}
	return &Cookies{codec: codec, prefix: prefix, secure: secure}
}

func (c *Cookies) sessionName() string  { return c.prefix + "_spotify_session" }
func (c *Cookies) stateName() string    { return c.prefix + "_spotify_state" }
func (c *Cookies) returnToName() string { return c.prefix + "_spotify_returnto" }

// base returns the common cookie attributes: HttpOnly, SameSite=Lax, path "/".
func (c *Cookies) base(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	}
}

func (c *Cookies) expired(name string) *http.Cookie {
	cookie := c.base(name, "")
	cookie.MaxAge = -1
	return cookie
}

// SetSession seals the session and writes it to the response.
func (c *Cookies) SetSession(w http.ResponseWriter, session Session) error {
	token, err := c.codec.Seal(session)
	if err != nil {
		return err
	}
	http.SetCookie(w, c.base(c.sessionName(), token))
	return nil
}

// ReadSession unseals the session cookie from the request.
//
// A missing cookie or any unseal failure yields ok=false.
func (c *Cookies) ReadSession(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(c.sessionName())
	if err != nil || cookie.Value == "" {
		return Session{}, false
	}
	return c.codec.Unseal(cookie.Value)
}

// ClearSession expires the session cookie.
func (c *Cookies) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, c.expired(c.sessionName()))
}

// SetTransaction writes the OAuth state and returnTo cookies.
func (c *Cookies) SetTransaction(w http.ResponseWriter, tx Transaction) {
	http.SetCookie(w, c.base(c.stateName(), tx.State))
	http.SetCookie(w, c.base(c.returnToName(), tx.ReturnTo))
}

// ReadTransaction reads the stored OAuth transaction; missing cookies leave fields empty.
func (c *Cookies) ReadTransaction(r *http.Request) Transaction {
	var tx Transaction
	if cookie, err := r.Cookie(c.stateName()); err == nil {
		tx.State = cookie.Value
	}
	if cookie, err := r.Cookie(c.returnToName()); err == nil {
		tx.ReturnTo = cookie.Value
	}
	return tx
}

// ClearTransaction expires both OAuth transaction cookies.
func (c *Cookies) ClearTransaction(w http.ResponseWriter) {
	http.SetCookie(w, c.expired(c.stateName()))
	http.SetCookie(w, c.expired(c.returnToName()))
}
