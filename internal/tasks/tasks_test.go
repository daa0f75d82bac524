package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/shared"
)

type recCall struct {
	seeds  []string
	market string
}

type mockTrackSource struct {
	saved      []string
	savedErr   error
	savedCalls int

	playlist      map[string][]string
	playlistErr   error
	playlistCalls int

	// Consumed one per RecommendationTrackIDs call.
	recResults [][]string
	recErrs    []error
	recCalls   []recCall
}

func (m *mockTrackSource) SavedTrackIDs(ctx context.Context, credential string, limit int) ([]string, error) {
	m.savedCalls++
	if m.savedErr != nil {
		return nil, m.savedErr
	}
	return m.saved, nil
}

func (m *mockTrackSource) PlaylistTrackIDs(ctx context.Context, credential, playlistID string, limit int) ([]string, error) {
	m.playlistCalls++
	if m.playlistErr != nil {
		return nil, m.playlistErr
	}
	return m.playlist[playlistID], nil
}

func (m *mockTrackSource) RecommendationTrackIDs(ctx context.Context, credential string, limit int, seedGenres []string, market string) ([]string, error) {
	i := len(m.recCalls)
	m.recCalls = append(m.recCalls, recCall{seeds: seedGenres, market: market})
	if i < len(m.recErrs) && m.recErrs[i] != nil {
		return nil, m.recErrs[i]
	}
	if i < len(m.recResults) {
		return m.recResults[i], nil
	}
	return nil, nil
}

type mockWriter struct {
	created   *services.CreatedPlaylist
	createErr error

	addErr error

	createdName   string
	createdDesc   string
	createdPublic bool
	added         []string
}

func (m *mockWriter) CurrentUser(ctx context.Context, credential string) (*services.SpotifyUser, error) {
	return &services.SpotifyUser{ID: "listener"}, nil
}

func (m *mockWriter) CreatePlaylist(ctx context.Context, credential, name, description string, public bool) (*services.CreatedPlaylist, error) {
	m.createdName = name
	m.createdDesc = description
	m.createdPublic = public
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.created != nil {
		return m.created, nil
	}
	return &services.CreatedPlaylist{ID: "pl1", URL: "https://open.spotify.com/playlist/pl1"}, nil
}

func (m *mockWriter) AddTracks(ctx context.Context, credential, playlistID string, trackIDs []string) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, trackIDs...)
	return nil
}

type mockRecommender struct {
	ids   []string
	err   error
	calls int
}

func (m *mockRecommender) Recommend(ctx context.Context, mood, credential string) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.ids, nil
}

func trackIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return ids
}

func requestCategory(t *testing.T, err error) shared.Category {
	t.Helper()
	var reqErr *shared.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *shared.RequestError, got %T: %v", err, err)
	}
	return reqErr.Category
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("engine tracks used directly and capped", func(t *testing.T) {
		source := &mockTrackSource{}
		writer := &mockWriter{}
		rec := &mockRecommender{ids: trackIDs("t", 12)}
		engine := NewMoodEngine(source, writer, rec, nil)

		result, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if result.FallbackUsed {
			t.Error("expected no fallback")
		}
		if result.Source != SourcePrimary {
			t.Errorf("expected primary source, got %s", result.Source)
		}
		if len(result.TrackIDs) != DesiredPlaylistTracks {
			t.Errorf("expected %d tracks, got %d", DesiredPlaylistTracks, len(result.TrackIDs))
		}
		if result.Message != "" {
			t.Errorf("expected no fallback message, got %q", result.Message)
		}
		if source.savedCalls != 0 || source.playlistCalls != 0 || len(source.recCalls) != 0 {
			t.Error("expected no fallback source calls")
		}
		if len(writer.added) != DesiredPlaylistTracks {
			t.Errorf("expected %d tracks added, got %d", DesiredPlaylistTracks, len(writer.added))
		}
	})

	t.Run("engine tracks deduplicated", func(t *testing.T) {
		writer := &mockWriter{}
		rec := &mockRecommender{ids: []string{"a", "b", "a", "c", "b", "d"}}
		engine := NewMoodEngine(&mockTrackSource{
			saved: trackIDs("s", 20),
		}, writer, rec, nil)

		result, err := engine.Generate(ctx, nil, MoodCalm, "token")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		want := []string{"a", "b", "c", "d"}
		for i, id := range want {
			if result.TrackIDs[i] != id {
				t.Errorf("track %d = %s, want %s", i, result.TrackIDs[i], id)
			}
		}
	})

	t.Run("playlist metadata", func(t *testing.T) {
		writer := &mockWriter{}
		rec := &mockRecommender{ids: trackIDs("t", 10)}
		engine := NewMoodEngine(&mockTrackSource{}, writer, rec, nil)

		result, err := engine.Generate(ctx, nil, MoodVerySad, "token")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if writer.createdName != "Moodlist - Very Sad" {
			t.Errorf("playlist name = %q", writer.createdName)
		}
		if writer.createdPublic {
			t.Error("playlist should be private")
		}
		if result.PlaylistID != "pl1" || result.PlaylistURL == "" {
			t.Errorf("unexpected playlist identity: %+v", result)
		}
		if result.PlaylistName != "Moodlist - Very Sad" {
			t.Errorf("result name = %q", result.PlaylistName)
		}
	})

	t.Run("empty engine result falls back to saved tracks", func(t *testing.T) {
		source := &mockTrackSource{saved: trackIDs("s", 15)}
		writer := &mockWriter{}
		rec := &mockRecommender{err: &services.APIError{Status: 422, Body: `{"detail":{"code":"no_top_tracks"}}`}}
		engine := NewMoodEngine(source, writer, rec, nil)

		result, err := engine.Generate(ctx, nil, MoodSad, "token")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !result.FallbackUsed {
			t.Error("expected fallback")
		}
		if result.Source != SourceSaved {
			t.Errorf("expected saved source, got %s", result.Source)
		}
		if result.Message != savedFallbackMessage {
			t.Errorf("unexpected message %q", result.Message)
		}
		if len(result.TrackIDs) != DesiredPlaylistTracks {
			t.Errorf("expected %d tracks, got %d", DesiredPlaylistTracks, len(result.TrackIDs))
		}
	})

	t.Run("top up reruns the cascade without crossing tiers", func(t *testing.T) {
		source := &mockTrackSource{
			saved:    trackIDs("s", 3),
			playlist: map[string][]string{TrendingPlaylistID: trackIDs("e", 20)},
		}
		writer := &mockWriter{}
		rec := &mockRecommender{err: &services.APIError{Status: 422, Body: "no_top_tracks"}}
		engine := NewMoodEngine(source, writer, rec, nil)

		result, err := engine.Generate(ctx, nil, MoodNeutral, "token")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if result.Source != SourceSaved {
			t.Errorf("expected saved source, got %s", result.Source)
		}
		if result.Message != savedFallbackMessage {
			t.Errorf("unexpected message %q", result.Message)
		}
		// The saved tier wins again on the top-up pass with the same three
		// tracks, so the playlist stays short instead of padding from the
		// editorial playlist behind it.
		if len(result.TrackIDs) != 3 {
			t.Fatalf("expected the 3 saved tracks, got %d", len(result.TrackIDs))
		}
		for i, id := range result.TrackIDs {
			if id != source.saved[i] {
				t.Errorf("track %d = %s, want %s", i, id, source.saved[i])
			}
		}
		if source.savedCalls != 2 {
			t.Errorf("savedCalls = %d, want cascade plus top-up", source.savedCalls)
		}
		if source.playlistCalls != 0 {
			t.Error("editorial tier should not run while saved tracks win")
		}
	})

	t.Run("top up failures are swallowed", func(t *testing.T) {
		// The first cascade pass wins at the recommendation tier; the top-up
		// pass exhausts every tier, which must not fail the generation.
		source := &mockTrackSource{
			savedErr:    &services.APIError{Status: 500, Body: "oops"},
			playlistErr: &services.APIError{Status: 404, Body: "Not found"},
			recResults:  [][]string{trackIDs("r", 3)},
			recErrs: []error{
				nil,
				&services.APIError{Status: 500, Body: "oops"},
				&services.APIError{Status: 500, Body: "oops"},
			},
		}
		writer := &mockWriter{}
		rec := &mockRecommender{err: &services.APIError{Status: 422, Body: "no_top_tracks"}}
		engine := NewMoodEngine(source, writer, rec, nil)

		result, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if result.Source != SourceRecommendation {
			t.Errorf("expected recommendation source, got %s", result.Source)
		}
		if len(result.TrackIDs) != 3 {
			t.Errorf("expected the 3 recommended tracks, got %d", len(result.TrackIDs))
		}
	})

	t.Run("credential rejection short circuits the cascade", func(t *testing.T) {
		source := &mockTrackSource{savedErr: &services.APIError{Status: 401, Body: "The access token expired"}}
		writer := &mockWriter{}
		rec := &mockRecommender{err: &services.APIError{Status: 422, Body: "no_top_tracks"}}
		engine := NewMoodEngine(source, writer, rec, nil)

		_, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if got := requestCategory(t, err); got != shared.CategoryCredentialInvalid {
			t.Errorf("category = %s", got)
		}
		if source.playlistCalls != 0 || len(source.recCalls) != 0 {
			t.Error("later tiers should not run after a credential rejection")
		}
	})

	t.Run("fatal engine error aborts before fallback", func(t *testing.T) {
		source := &mockTrackSource{saved: trackIDs("s", 10)}
		writer := &mockWriter{}
		rec := &mockRecommender{err: &services.APIError{Status: 403, Body: "spotify_user_not_registered"}}
		engine := NewMoodEngine(source, writer, rec, nil)

		_, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if got := requestCategory(t, err); got != shared.CategoryAccountNotRegistered {
			t.Errorf("category = %s", got)
		}
		if source.savedCalls != 0 {
			t.Error("fallback should not run after a fatal engine error")
		}
	})

	t.Run("unreachable engine surfaces without falling back", func(t *testing.T) {
		source := &mockTrackSource{saved: trackIDs("s", 10)}
		writer := &mockWriter{}
		rec := &mockRecommender{err: fmt.Errorf("%w: connection refused", shared.ErrEngineUnreachable)}
		engine := NewMoodEngine(source, writer, rec, nil)

		_, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if got := requestCategory(t, err); got != shared.CategoryUpstreamUnreachable {
			t.Errorf("category = %s", got)
		}
		if source.savedCalls != 0 {
			t.Error("fallback should not run when the engine is unreachable")
		}
	})

	t.Run("unrecognized engine rejection surfaces without falling back", func(t *testing.T) {
		source := &mockTrackSource{saved: trackIDs("s", 10)}
		writer := &mockWriter{}
		rec := &mockRecommender{err: &services.APIError{Status: 422, Body: "totally_different_code"}}
		engine := NewMoodEngine(source, writer, rec, nil)

		_, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if got := requestCategory(t, err); got != shared.CategoryUpstreamError {
			t.Errorf("category = %s", got)
		}
		if source.savedCalls != 0 {
			t.Error("fallback should not run on an unrecognized engine rejection")
		}
	})

	t.Run("cascade exhaustion", func(t *testing.T) {
		source := &mockTrackSource{
			playlistErr: &services.APIError{Status: 404, Body: "Not found"},
			recErrs: []error{
				&services.APIError{Status: 500, Body: "oops"},
				&services.APIError{Status: 500, Body: "oops"},
			},
		}
		writer := &mockWriter{}
		rec := &mockRecommender{err: &services.APIError{Status: 422, Body: "no_top_tracks"}}
		engine := NewMoodEngine(source, writer, rec, nil)

		_, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if got := requestCategory(t, err); got != shared.CategoryNoCandidates {
			t.Errorf("category = %s", got)
		}
		var reqErr *shared.RequestError
		errors.As(err, &reqErr)
		if reqErr.Message != exhaustedMessage {
			t.Errorf("message = %q", reqErr.Message)
		}
	})

	t.Run("recommendation tier retries with broad seed", func(t *testing.T) {
		source := &mockTrackSource{
			recErrs:    []error{&services.APIError{Status: 500, Body: "oops"}, nil},
			recResults: [][]string{nil, trackIDs("r", 10)},
		}
		writer := &mockWriter{}
		rec := &mockRecommender{err: &services.APIError{Status: 422, Body: "no_top_tracks"}}
		engine := NewMoodEngine(source, writer, rec, nil)

		result, err := engine.Generate(ctx, nil, MoodCalm, "token")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if result.Source != SourceRecommendation {
			t.Errorf("expected recommendation source, got %s", result.Source)
		}
		if result.Message != recommendationFallbackMessage {
			t.Errorf("unexpected message %q", result.Message)
		}
		if len(source.recCalls) != 2 {
			t.Fatalf("expected 2 recommendation calls, got %d", len(source.recCalls))
		}
		first, second := source.recCalls[0], source.recCalls[1]
		if first.market != "from_token" || len(first.seeds) != 3 {
			t.Errorf("unexpected first call %+v", first)
		}
		if second.market != "" || len(second.seeds) != 1 || second.seeds[0] != "pop" {
			t.Errorf("retry should use a single broad seed without market, got %+v", second)
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		engine := NewMoodEngine(&mockTrackSource{}, &mockWriter{}, &mockRecommender{}, nil)
		_, err := engine.Generate(ctx, nil, MoodHappy, "")
		if got := requestCategory(t, err); got != shared.CategoryCredentialMissing {
			t.Errorf("category = %s", got)
		}
	})

	t.Run("unknown mood", func(t *testing.T) {
		engine := NewMoodEngine(&mockTrackSource{}, &mockWriter{}, &mockRecommender{}, nil)
		_, err := engine.Generate(ctx, nil, Mood("Euphoric"), "token")
		if !errors.Is(err, shared.ErrInvalidMood) {
			t.Errorf("expected ErrInvalidMood, got %v", err)
		}
	})

	t.Run("create playlist scope rejection", func(t *testing.T) {
		writer := &mockWriter{createErr: &services.APIError{Status: 403, Body: "spotify_insufficient_scope"}}
		rec := &mockRecommender{ids: trackIDs("t", 10)}
		engine := NewMoodEngine(&mockTrackSource{}, writer, rec, nil)

		_, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if got := requestCategory(t, err); got != shared.CategoryInsufficientScope {
			t.Errorf("category = %s", got)
		}
	})

	t.Run("add tracks failure reports playlist write error", func(t *testing.T) {
		writer := &mockWriter{addErr: &services.APIError{Status: 502, Body: "bad gateway"}}
		rec := &mockRecommender{ids: trackIDs("t", 10)}
		engine := NewMoodEngine(&mockTrackSource{}, writer, rec, nil)

		_, err := engine.Generate(ctx, nil, MoodHappy, "token")
		if got := requestCategory(t, err); got != shared.CategoryPlaylistWrite {
			t.Errorf("category = %s", got)
		}
	})

	t.Run("progress updates do not block", func(t *testing.T) {
		rec := &mockRecommender{ids: trackIDs("t", 10)}
		engine := NewMoodEngine(&mockTrackSource{}, &mockWriter{}, rec, nil)

		// Unbuffered channel with no reader: sends must be dropped.
		progress := make(chan ProgressUpdate)
		if _, err := engine.Generate(ctx, progress, MoodHappy, "token"); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	})

	t.Run("progress phases reported", func(t *testing.T) {
		source := &mockTrackSource{saved: trackIDs("s", 15)}
		rec := &mockRecommender{err: &services.APIError{Status: 422, Body: "no_top_tracks"}}
		engine := NewMoodEngine(source, &mockWriter{}, rec, nil)

		progress := make(chan ProgressUpdate, 32)
		if _, err := engine.Generate(ctx, progress, MoodHappy, "token"); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		close(progress)

		seen := map[Phase]bool{}
		for update := range progress {
			seen[update.Phase] = true
			if update.Message == "" {
				t.Errorf("phase %s update has no message", update.Phase)
			}
		}
		for _, phase := range []Phase{FetchEngine, FetchSaved, CreatePlaylist, AddTracks} {
			if !seen[phase] {
				t.Errorf("missing %s update", phase)
			}
		}
	})
}
