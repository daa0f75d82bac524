package server

import (
	"net/http"
	"time"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
)

// HandleLogin starts the Spotify authorization flow.
//
// The optional return_to query parameter names the relative path to resume
// after the callback; it rides along in the transaction cookie.
func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	tx := session.NewTransaction(r.URL.Query().Get("return_to"))
	a.Cookies.SetTransaction(w, tx)
	http.Redirect(w, r, a.Auth.AuthURL(tx.State), http.StatusFound)
}

// HandleCallback completes the authorization flow: it checks the state
// against the transaction cookie, exchanges the code, seals the resulting
// credential into the session cookie, and bounces back to the return path.
func (a *App) HandleCallback(w http.ResponseWriter, r *http.Request) {
	tx := a.Cookies.ReadTransaction(r)
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		a.logger().Warn("authorization declined", "error", errParam)
		a.Cookies.ClearTransaction(w)
		http.Redirect(w, r, returnPath(tx)+"?spotify=error", http.StatusFound)
		return
	}

	if !tx.Matches(query.Get("state")) {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := a.Auth.Exchange(r.Context(), code)
	if err != nil {
		a.logger().Error("token exchange failed", "err", err)
		a.writeError(w, shared.NewRequestError(shared.CategoryPlaylistWrite, "Spotify token exchange failed.", err.Error()))
		return
	}

	sess := session.NewSession(token.AccessToken, time.Until(token.Expiry), time.Now())
	if err := a.Cookies.SetSession(w, sess); err != nil {
		a.logger().Error("session seal failed", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	a.Cookies.ClearTransaction(w)

	a.recordUser(r, sess.AccessToken)

	http.Redirect(w, r, returnPath(tx)+"?spotify=connected", http.StatusFound)
}

// recordUser upserts the listener's account from their Spotify profile.
// Profile lookup failures only cost the local record, not the login.
func (a *App) recordUser(r *http.Request, credential string) {
	profile, err := a.Profile.CurrentUser(r.Context(), credential)
	if err != nil {
		a.logger().Warn("profile lookup failed after login", "err", err)
		return
	}
	if profile.Email == "" {
		return
	}
	if _, err := a.Users.GetByEmail(profile.Email); err == nil {
		return
	}

	name := profile.DisplayName
	if name == "" {
		name = profile.ID
	}
	if err := a.Users.Create(models.NewUser(0, profile.Email, name)); err != nil {
		a.logger().Warn("failed to record user", "email", profile.Email, "err", err)
	}
}

// HandleStatus reports whether the caller holds a usable Spotify session.
func (a *App) HandleStatus(w http.ResponseWriter, r *http.Request) {
	type statusBody struct {
		Connected   bool  `json:"connected"`
		ExpiresAtMs int64 `json:"expiresAtMs,omitempty"`
	}

	sess, ok := a.Cookies.ReadSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, statusBody{})
		return
	}
	writeJSON(w, http.StatusOK, statusBody{
		Connected:   sess.Active(time.Now()),
		ExpiresAtMs: sess.ExpiresAtMs,
	})
}

// HandleLogout discards the sealed session cookie.
func (a *App) HandleLogout(w http.ResponseWriter, r *http.Request) {
	a.Cookies.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func returnPath(tx session.Transaction) string {
	if tx.ReturnTo == "" {
		return "/dashboard"
	}
	return tx.ReturnTo
}
