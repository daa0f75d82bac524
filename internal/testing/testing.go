// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/tasks"
	"golang.org/x/oauth2"
)

// MockSpotify is a configurable test double for the Spotify client surface
// (track sourcing, playlist writing, and OAuth).
type MockSpotify struct {
	SavedIDs       []string
	SavedErr       error
	PlaylistIDs    map[string][]string
	PlaylistErr    error
	RecommendedIDs []string
	User           *services.SpotifyUser
	UserErr        error
	Created        *services.CreatedPlaylist
	CreateErr      error
	AddErr         error
	AddedIDs       []string
	Token          *oauth2.Token
	ExchangeErr    error
}

func (m *MockSpotify) SavedTrackIDs(ctx context.Context, credential string, limit int) ([]string, error) {
	return m.SavedIDs, m.SavedErr
}

func (m *MockSpotify) PlaylistTrackIDs(ctx context.Context, credential, playlistID string, limit int) ([]string, error) {
	if m.PlaylistErr != nil {
		return nil, m.PlaylistErr
	}
	return m.PlaylistIDs[playlistID], nil
}

func (m *MockSpotify) RecommendationTrackIDs(ctx context.Context, credential string, limit int, seedGenres []string, market string) ([]string, error) {
	return m.RecommendedIDs, nil
}

func (m *MockSpotify) CurrentUser(ctx context.Context, credential string) (*services.SpotifyUser, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.User != nil {
		return m.User, nil
	}
	return &services.SpotifyUser{ID: "mock", DisplayName: "Mock Listener", Email: "mock@example.com"}, nil
}

func (m *MockSpotify) CreatePlaylist(ctx context.Context, credential, name, description string, public bool) (*services.CreatedPlaylist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.Created != nil {
		return m.Created, nil
	}
	return &services.CreatedPlaylist{ID: "mock-playlist", URL: "https://open.spotify.com/playlist/mock-playlist"}, nil
}

func (m *MockSpotify) AddTracks(ctx context.Context, credential, playlistID string, trackIDs []string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.AddedIDs = append(m.AddedIDs, trackIDs...)
	return nil
}

func (m *MockSpotify) AuthURL(state string) string {
	return "https://accounts.spotify.com/authorize?state=" + state
}

func (m *MockSpotify) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	if m.Token != nil {
		return m.Token, nil
	}
	return &oauth2.Token{AccessToken: "mock-token"}, nil
}

// MockRecommender is a test double for [services.Recommender].
type MockRecommender struct {
	IDs []string
	Err error
}

func (m *MockRecommender) Recommend(ctx context.Context, mood, credential string) ([]string, error) {
	return m.IDs, m.Err
}

// MockEngine is a test double for [tasks.Engine].
type MockEngine struct {
	Result *tasks.GenerateResult
	Err    error
}

func (m *MockEngine) Generate(ctx context.Context, progress chan<- tasks.ProgressUpdate, mood tasks.Mood, credential string) (*tasks.GenerateResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &tasks.GenerateResult{
		PlaylistID:   "mock-playlist",
		PlaylistURL:  "https://open.spotify.com/playlist/mock-playlist",
		PlaylistName: mood.PlaylistName(),
		Mood:         mood,
		TrackIDs:     []string{"a", "b", "c"},
		Source:       tasks.SourcePrimary,
	}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
