// package services defines typed clients for the upstream HTTP APIs
//
// Spotify Web API, mood recommendation engine
package services

import (
	"context"
	"fmt"
)

// MaxTrackIDs bounds every track-identifier listing regardless of the caller's
// requested limit, to bound cascade latency and memory.
const MaxTrackIDs = 200

// TrackSource is the read surface of the music service consumed by the
// fallback cascade. Every operation paginates, deduplicates by identifier
// preserving first-seen order, and caps the result at limit (at most
// [MaxTrackIDs]).
type TrackSource interface {
	// SavedTrackIDs lists the user's saved (Liked Songs) track identifiers.
	SavedTrackIDs(ctx context.Context, credential string, limit int) ([]string, error)

	// PlaylistTrackIDs lists track identifiers from the given playlist.
	PlaylistTrackIDs(ctx context.Context, credential, playlistID string, limit int) ([]string, error)

	// RecommendationTrackIDs queries the recommendation endpoint with up to
	// five genre seeds and an optional market qualifier.
	RecommendationTrackIDs(ctx context.Context, credential string, limit int, seedGenres []string, market string) ([]string, error)
}

// PlaylistWriter is the write surface used once candidates are selected.
type PlaylistWriter interface {
	// CurrentUser resolves the acting user's identity.
	CurrentUser(ctx context.Context, credential string) (*SpotifyUser, error)

	// CreatePlaylist creates a playlist under the acting user's identity.
	CreatePlaylist(ctx context.Context, credential, name, description string, public bool) (*CreatedPlaylist, error)

	// AddTracks appends tracks in upstream-sized batches, in order.
	// A failed batch aborts the remaining batches.
	AddTracks(ctx context.Context, credential, playlistID string, trackIDs []string) error
}

// Recommender is the external mood recommendation engine.
type Recommender interface {
	// Recommend returns candidate track identifiers for the mood, or an
	// [*APIError] carrying the engine's status and detail message.
	Recommend(ctx context.Context, mood, credential string) ([]string, error)
}

// CreatedPlaylist identifies a playlist created on the upstream service.
type CreatedPlaylist struct {
	ID  string
	URL string
}

// APIError is the structured error raised for any non-success upstream
// response: the numeric status plus the response body (or status text when
// the body is empty). It is the sole signal the error classifier inspects.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}
