package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/desertthunder/moodlist/internal/tasks"
)

// generateRequest is the POST /api/playlists body.
type generateRequest struct {
	Mood string `json:"mood"`
}

// playlistSummary is one row of the listener's generation history.
type playlistSummary struct {
	ID         string    `json:"id"`
	Mood       string    `json:"mood"`
	SpotifyID  string    `json:"spotifyId"`
	SpotifyURL string    `json:"spotifyUrl"`
	Name       string    `json:"name"`
	TrackCount int       `json:"trackCount"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HandleGeneratePlaylist generates a mood playlist for the caller.
//
// Requires an active sealed session and an allowlisted account. The response
// is the full generation result, including which source tier supplied the
// tracks and any fallback note.
func (a *App) HandleGeneratePlaylist(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Category: "invalid_request", Message: "Request body must be JSON with a mood field."})
		return
	}
	mood, err := tasks.ParseMood(req.Mood)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Category: "invalid_mood", Message: "Unknown mood. Pick one of: Happy, Calm, Neutral, Sad, Very Sad."})
		return
	}

	sess, credErr := a.activeSession(r)
	if credErr != nil {
		a.writeError(w, credErr)
		return
	}

	user, userErr := a.allowlistedUser(r, sess.AccessToken)
	if userErr != nil {
		a.writeError(w, userErr)
		return
	}

	result, err := a.Engine.Generate(r.Context(), nil, mood, sess.AccessToken)
	if err != nil {
		a.writeError(w, err)
		return
	}

	record := models.NewPlaylistRecord(0, user.ID(), string(mood), result.PlaylistID, result.PlaylistURL, result.PlaylistName)
	record.SetTrackCount(len(result.TrackIDs))
	record.SetSource(string(result.Source))
	if err := a.Playlists.Create(record); err != nil {
		// History is best effort; the playlist already exists on Spotify.
		a.logger().Warn("failed to record playlist", "spotify_id", result.PlaylistID, "err", err)
	}

	writeJSON(w, http.StatusCreated, result)
}

// HandleListPlaylists returns the caller's generation history, newest first.
func (a *App) HandleListPlaylists(w http.ResponseWriter, r *http.Request) {
	sess, credErr := a.activeSession(r)
	if credErr != nil {
		a.writeError(w, credErr)
		return
	}

	user, userErr := a.allowlistedUser(r, sess.AccessToken)
	if userErr != nil {
		a.writeError(w, userErr)
		return
	}

	records, err := a.Playlists.List(map[string]any{"user_id": user.ID()})
	if err != nil {
		a.writeError(w, err)
		return
	}

	summaries := make([]playlistSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, playlistSummary{
			ID:         record.ID(),
			Mood:       record.Mood(),
			SpotifyID:  record.SpotifyID(),
			SpotifyURL: record.SpotifyURL(),
			Name:       record.Name(),
			TrackCount: record.TrackCount(),
			Source:     record.Source(),
			CreatedAt:  record.CreatedAt(),
		})
	}

	writeJSON(w, http.StatusOK, summaries)
}

// activeSession unseals the caller's session cookie and checks it is still
// usable, returning a typed credential error otherwise.
func (a *App) activeSession(r *http.Request) (sess sessionValue, err *shared.RequestError) {
	unsealed, ok := a.Cookies.ReadSession(r)
	if !ok {
		return sess, shared.NewRequestError(shared.CategoryCredentialMissing, "Spotify is not connected.", "")
	}
	if !unsealed.Active(time.Now()) {
		return sess, shared.NewRequestError(shared.CategoryCredentialExpired, "Your Spotify session expired. Reconnect and try again.", "")
	}
	return sessionValue{AccessToken: unsealed.AccessToken}, nil
}

// sessionValue carries just the credential the handlers need.
type sessionValue struct {
	AccessToken string
}

// allowlistedUser resolves the caller's Spotify profile to a local user and
// checks their access grant. Users without an allowlisted grant are reported
// as not registered with the app.
func (a *App) allowlistedUser(r *http.Request, credential string) (*models.User, *shared.RequestError) {
	profile, err := a.Profile.CurrentUser(r.Context(), credential)
	if err != nil {
		if class := services.ClassifyError(err); class.Fatal() {
			return nil, tasks.UpstreamRequestError(class, err)
		}
		return nil, shared.NewRequestError(shared.CategoryPlaylistWrite, "Could not resolve your Spotify profile.", err.Error())
	}

	notRegistered := shared.NewRequestError(shared.CategoryAccountNotRegistered,
		"This Spotify account is not registered with the app yet.", "")

	if profile.Email == "" {
		return nil, notRegistered
	}
	user, err := a.Users.GetByEmail(profile.Email)
	if err != nil {
		return nil, notRegistered
	}
	grant, err := a.Grants.GetByUserID(user.ID())
	if err != nil || !grant.Allowlisted() {
		return nil, notRegistered
	}
	return user, nil
}
