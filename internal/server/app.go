package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodlist/internal/repositories"
	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/desertthunder/moodlist/internal/tasks"
	"golang.org/x/oauth2"
)

// SpotifyAuth is the OAuth surface of the Spotify client used by the auth handlers.
type SpotifyAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// App bundles the dependencies behind the web service's HTTP handlers.
type App struct {
	Auth      SpotifyAuth
	Profile   services.PlaylistWriter
	Engine    tasks.Engine
	Cookies   *session.Cookies
	Users     *repositories.UserRepository
	Grants    *repositories.AccessGrantRepository
	Playlists *repositories.PlaylistRepository
	Logger    *log.Logger
}

// Routes registers every handler the web service exposes.
func (a *App) Routes(router Router) {
	router.Handle("GET", "/auth/spotify/login", http.HandlerFunc(a.HandleLogin))
	router.Handle("GET", "/auth/spotify/callback", http.HandlerFunc(a.HandleCallback))
	router.Handle("GET", "/auth/spotify/status", http.HandlerFunc(a.HandleStatus))
	router.Handle("POST", "/auth/spotify/logout", http.HandlerFunc(a.HandleLogout))
	router.Handle("POST", "/api/playlists", http.HandlerFunc(a.HandleGeneratePlaylist))
	router.Handle("GET", "/api/playlists", http.HandlerFunc(a.HandleListPlaylists))
}

func (a *App) logger() *log.Logger {
	if a.Logger == nil {
		a.Logger = shared.NewLogger(nil)
	}
	return a.Logger
}

// errorBody is the JSON envelope for every non-success API response.
type errorBody struct {
	Category shared.Category `json:"category"`
	Message  string          `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err as a JSON error body. Typed request errors keep
// their category and display message; anything else is reported as a generic
// upstream failure.
func (a *App) writeError(w http.ResponseWriter, err error) {
	var reqErr *shared.RequestError
	if !errors.As(err, &reqErr) {
		a.logger().Error("unclassified handler error", "err", err)
		reqErr = shared.NewRequestError(shared.CategoryUpstreamError, "Something went wrong.", err.Error())
	}
	writeJSON(w, statusForCategory(reqErr.Category), errorBody{
		Category: reqErr.Category,
		Message:  reqErr.Message,
	})
}

// statusForCategory maps an error category onto the HTTP status the API
// reports for it.
func statusForCategory(category shared.Category) int {
	switch category {
	case shared.CategoryCredentialMissing, shared.CategoryCredentialExpired, shared.CategoryCredentialInvalid:
		return http.StatusUnauthorized
	case shared.CategoryInsufficientScope, shared.CategoryAccountNotRegistered, shared.CategoryForbidden:
		return http.StatusForbidden
	case shared.CategoryNoCandidates:
		return http.StatusUnprocessableEntity
	case shared.CategoryUpstreamUnreachable, shared.CategoryUpstreamError, shared.CategoryPlaylistWrite:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
