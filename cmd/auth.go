package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/moodlist/internal/server"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the OAuth2 authorization flow and stores the sealed session locally.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client not configured, add credentials to config.toml", shared.ErrServiceUnavailable)
	}

	token, err := r.doOAuth("authorization")
	if err != nil {
		return err
	}

	expiresIn := time.Until(token.Expiry)
	if token.Expiry.IsZero() {
		expiresIn = time.Hour
	}

	sess := session.NewSession(token.AccessToken, expiresIn, time.Now())
	if err := r.saveSession(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Session saved to %s\n\n", r.sessionPath)
	r.writePlain("You can now use: moodlist generate Happy\n")

	return nil
}

// AuthStatus reports whether a stored Spotify session exists and is still active.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sess, ok := r.loadSession()
	if !ok {
		r.writePlain("✗ Not connected to Spotify\n")
		r.writePlain("Run 'moodlist auth login' to connect.\n")
		return nil
	}

	expiry := time.UnixMilli(sess.ExpiresAtMs)
	if sess.Active(time.Now()) {
		r.writePlain("✓ Connected to Spotify\n")
		r.writePlain("Session expires at %s\n", expiry.Format(time.RFC1123))
		return nil
	}

	r.writePlain("✗ Spotify session expired at %s\n", expiry.Format(time.RFC1123))
	r.writePlain("Run 'moodlist auth login' to reconnect.\n")
	return nil
}

// AuthLogout deletes the stored session file.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := os.Remove(r.sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(prefix string) (*oauth2.Token, error) {
	state := shared.RandomToken(32)

	authURL := r.spotify.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(r.spotify, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("authorization timed out after 2 minutes")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// sessionCodec builds the sealed-token codec from the configured session secret.
func (r *Runner) sessionCodec() (*session.Codec, error) {
	return session.NewCodec(r.config.Session.Secret, r.config.Session.KeyDerivation)
}

// saveSession seals the session and writes it to the session file.
func (r *Runner) saveSession(sess session.Session) error {
	codec, err := r.sessionCodec()
	if err != nil {
		return err
	}

	sealed, err := codec.Seal(sess)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.sessionPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(r.sessionPath, []byte(sealed), 0600)
}

// loadSession reads and unseals the stored session, if any.
func (r *Runner) loadSession() (session.Session, bool) {
	data, err := os.ReadFile(r.sessionPath)
	if err != nil {
		return session.Session{}, false
	}

	codec, err := r.sessionCodec()
	if err != nil {
		return session.Session{}, false
	}

	return codec.Unseal(string(data))
}

// credential returns the stored access token, failing when the session is missing or expired.
func (r *Runner) credential() (string, error) {
	sess, ok := r.loadSession()
	if !ok {
		return "", fmt.Errorf("%w: run 'moodlist auth login' first", shared.ErrCredentialMissing)
	}
	if !sess.Active(time.Now()) {
		return "", fmt.Errorf("%w: run 'moodlist auth login' to reconnect", shared.ErrCredentialExpired)
	}
	return sess.AccessToken, nil
}
