// package tasks implements mood playlist generation.
//
// The core abstraction is MoodEngine, which scores the listener's top tracks
// through the recommendation engine and falls back through library, editorial,
// and recommendation sources when the engine has nothing to offer.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/shared"
)

// DesiredPlaylistTracks is the target size of a generated playlist.
const DesiredPlaylistTracks = 10

// GenerateResult contains all data from a full generation run.
type GenerateResult struct {
	PlaylistID   string   `json:"playlistId"`            // Spotify playlist identifier
	PlaylistURL  string   `json:"playlistUrl"`           // Open-in-Spotify link
	PlaylistName string   `json:"playlistName"`          // Title given to the playlist
	Mood         Mood     `json:"mood"`                  // Mood the playlist was generated for
	TrackIDs     []string `json:"trackIds"`              // Tracks added, in order
	Source       Source   `json:"source"`                // Tier that supplied the initial tracks
	FallbackUsed bool     `json:"fallbackUsed"`          // Whether the engine tier came up empty
	Message      string   `json:"fallbackMsg,omitempty"` // User-facing note when a fallback fired
}

// Engine defines operations for generating mood playlists.
type Engine interface {
	// Generate builds a playlist for the mood under the given Spotify
	// credential, sending progress updates along the way.
	Generate(ctx context.Context, progress chan<- ProgressUpdate, mood Mood, credential string) (*GenerateResult, error)
}

// MoodEngine implements Engine against the Spotify API and the external
// recommendation engine.
type MoodEngine struct {
	source      services.TrackSource
	writer      services.PlaylistWriter
	recommender services.Recommender
	logger      *log.Logger
}

// NewMoodEngine creates a MoodEngine with the provided services.
func NewMoodEngine(source services.TrackSource, writer services.PlaylistWriter, recommender services.Recommender, logger *log.Logger) *MoodEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MoodEngine{
		source:      source,
		writer:      writer,
		recommender: recommender,
		logger:      logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MoodEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Generate builds a mood playlist end to end: pick candidate tracks, create
// the playlist, add the tracks.
//
// Candidate selection tries the recommendation engine first and walks the
// fallback cascade only when the engine reports no candidates; any other
// engine failure is surfaced without cascading. Credential rejections abort
// immediately regardless of tier. A short result is topped up by running the
// cascade once more, with top-up failures logged and swallowed.
func (e *MoodEngine) Generate(ctx context.Context, progress chan<- ProgressUpdate, mood Mood, credential string) (*GenerateResult, error) {
	if e.source == nil || e.writer == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if _, ok := seedGenres[mood]; !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidMood, mood)
	}
	if credential == "" {
		return nil, shared.NewRequestError(shared.CategoryCredentialMissing, "Spotify is not connected.", "")
	}

	result := &GenerateResult{Mood: mood, Source: SourcePrimary}

	// Only a no-candidates outcome enters the cascade; primaryTrackIDs
	// already folds that into an empty result. Everything else is terminal.
	ids, primaryErr := e.primaryTrackIDs(ctx, progress, mood, credential)
	if primaryErr != nil {
		return nil, UpstreamRequestError(services.ClassifyError(primaryErr), primaryErr)
	}

	if len(ids) == 0 {
		fallbackIDs, source, message, err := e.fallbackTrackIDs(ctx, progress, mood, credential)
		if err != nil {
			return nil, err
		}
		ids = fallbackIDs
		result.Source = source
		result.FallbackUsed = true
		result.Message = message
	}

	if len(ids) < DesiredPlaylistTracks {
		e.sendProgress(progress, topUpUpdate(1, 1, len(ids), DesiredPlaylistTracks))
		ids = e.topUpTrackIDs(ctx, mood, credential, ids, DesiredPlaylistTracks)
	}
	if len(ids) > DesiredPlaylistTracks {
		ids = ids[:DesiredPlaylistTracks]
	}
	result.TrackIDs = ids

	name := mood.PlaylistName()
	e.sendProgress(progress, createPlaylistUpdate(1, 2, name))

	created, err := e.writer.CreatePlaylist(ctx, credential, name, mood.PlaylistDescription(), false)
	if err != nil {
		if class := services.ClassifyError(err); class.Fatal() {
			return nil, UpstreamRequestError(class, err)
		}
		return nil, shared.NewRequestError(shared.CategoryPlaylistWrite, "Could not create the playlist on Spotify.", err.Error())
	}
	result.PlaylistID = created.ID
	result.PlaylistURL = created.URL
	result.PlaylistName = name

	e.sendProgress(progress, addTracksUpdate(2, 2, len(ids)))

	if err := e.writer.AddTracks(ctx, credential, created.ID, ids); err != nil {
		if class := services.ClassifyError(err); class.Fatal() {
			return nil, UpstreamRequestError(class, err)
		}
		return nil, shared.NewRequestError(shared.CategoryPlaylistWrite, "Could not add tracks to the playlist.", err.Error())
	}

	e.logger.Info("playlist generated",
		"mood", mood, "playlist", created.ID, "tracks", len(ids),
		"source", result.Source, "fallback", result.FallbackUsed)
	return result, nil
}

// primaryTrackIDs asks the recommendation engine to score the listener's top
// tracks. An empty result with a nil error means the engine succeeded but had
// nothing to offer.
func (e *MoodEngine) primaryTrackIDs(ctx context.Context, progress chan<- ProgressUpdate, mood Mood, credential string) ([]string, error) {
	if e.recommender == nil {
		return nil, nil
	}

	e.sendProgress(progress, fetchEngineUpdate(1, 1, mood))

	ids, err := e.recommender.Recommend(ctx, string(mood), credential)
	if err != nil {
		if services.ClassifyError(err) == services.NoCandidates {
			// The listener has no top tracks to score. Not a failure.
			return nil, nil
		}
		return nil, err
	}
	return shared.DedupeKeepOrder(ids), nil
}

// UpstreamRequestError converts an upstream error class into the typed
// request error surfaced to API and CLI callers.
func UpstreamRequestError(class services.ErrorClass, err error) *shared.RequestError {
	switch class {
	case services.CredentialInvalid:
		return shared.NewRequestError(shared.CategoryCredentialInvalid,
			"Spotify rejected your session. Reconnect Spotify and try again.", err.Error())
	case services.InsufficientScope:
		return shared.NewRequestError(shared.CategoryInsufficientScope,
			"Spotify did not grant the permissions this app needs. Reconnect and accept all permissions.", err.Error())
	case services.AccountNotRegistered:
		return shared.NewRequestError(shared.CategoryAccountNotRegistered,
			"This Spotify account is not registered with the app yet.", err.Error())
	case services.ForbiddenOther:
		return shared.NewRequestError(shared.CategoryForbidden,
			"Spotify refused the request.", err.Error())
	default:
		if errors.Is(err, shared.ErrEngineUnreachable) {
			return shared.NewRequestError(shared.CategoryUpstreamUnreachable,
				"The recommendation engine is unreachable.", err.Error())
		}
		return shared.NewRequestError(shared.CategoryUpstreamError,
			"An upstream service failed.", err.Error())
	}
}
