// Spotify API implementation of [TrackSource] and [PlaylistWriter]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// per-page item cap imposed by the listing endpoints
	spotifyPageLimit = 50
	// the recommendations endpoint accepts up to 100 per request
	spotifyRecommendationLimit = 100
	// add-tracks accepts at most 100 URIs per request
	spotifyAddTracksBatch = 100
	// client-side requests per second against the API
	spotifyRateLimit = 10
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

type trackRef struct {
	ID string `json:"id"`
}

type pagedTrackItem struct {
	Track *trackRef `json:"track"`
}

// pagedTracks covers both /me/tracks and /playlists/{id}/tracks pages.
type pagedTracks struct {
	Items []*pagedTrackItem `json:"items"`
	Next  *string           `json:"next"`
}

type recommendationsResponse struct {
	Tracks []*trackRef `json:"tracks"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type createdPlaylistResponse struct {
	ID           string       `json:"id"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyService implements [TrackSource] and [PlaylistWriter] for the Spotify Web API.
//
// Credentials are per-call bearer tokens; the service itself holds only the
// OAuth2 app configuration, the HTTP transport, and a client-side rate limiter,
// so one instance serves all concurrent requests.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/auth/spotify/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-modify-private",
			"playlist-modify-public",
			"user-library-read",
			"user-top-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(spotifyRateLimit), 1),
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
//
// show_dialog forces the consent screen so reconnecting users can re-approve scopes.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for an access token.
//
// Only the access token and expiry are consumed downstream; the refresh token
// is deliberately not persisted anywhere.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request against the Spotify API.
//
// Non-success statuses become an [*APIError] carrying the status and the
// response body as text (status text when the body is empty).
func (s *SpotifyService) doRequest(ctx context.Context, credential, method, endpoint string, body any, result any) error {
	if credential == "" {
		return fmt.Errorf("missing access token")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("request canceled: %w", err)
	}

	apiURL := s.baseURL + endpoint

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Body: msg}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// clampLimit bounds a caller-requested limit to [1, MaxTrackIDs].
func clampLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > MaxTrackIDs {
		return MaxTrackIDs
	}
	return limit
}

// collectTrackIDs follows next-page pointers starting at endpoint until target
// identifiers are gathered or the upstream reports no further pages.
func (s *SpotifyService) collectTrackIDs(ctx context.Context, credential, endpoint string, target int) ([]string, error) {
	collected := make([]string, 0, target)
	next := endpoint

	for next != "" && len(collected) < target {
		var page pagedTracks
		if err := s.doRequest(ctx, credential, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item == nil || item.Track == nil || item.Track.ID == "" {
				continue
			}
			collected = append(collected, item.Track.ID)
			if len(collected) >= target {
				break
			}
		}

		next = ""
		if page.Next != nil && *page.Next != "" {
			// Spotify returns a fully qualified URL; doRequest expects a path.
			if strings.HasPrefix(*page.Next, s.baseURL) {
				next = strings.TrimPrefix(*page.Next, s.baseURL)
			}
		}
	}

	return dedupeCapped(collected, target), nil
}

// dedupeCapped removes duplicates preserving first-seen order and caps at target.
func dedupeCapped(ids []string, target int) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, target)
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) >= target {
			break
		}
	}
	return out
}

// SavedTrackIDs lists identifiers from the user's Liked Songs library.
func (s *SpotifyService) SavedTrackIDs(ctx context.Context, credential string, limit int) ([]string, error) {
	target := clampLimit(limit)
	if target == 0 {
		return []string{}, nil
	}

	params := url.Values{
		"limit":  {fmt.Sprintf("%d", spotifyPageLimit)},
		"offset": {"0"},
		"fields": {"items(track(id)),next"},
	}
	return s.collectTrackIDs(ctx, credential, "/me/tracks?"+params.Encode(), target)
}

// PlaylistTrackIDs lists identifiers from the given playlist.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, credential, playlistID string, limit int) ([]string, error) {
	target := clampLimit(limit)
	if target == 0 {
		return []string{}, nil
	}

	params := url.Values{
		"limit":  {fmt.Sprintf("%d", spotifyPageLimit)},
		"offset": {"0"},
		"fields": {"items(track(id)),next"},
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(playlistID), params.Encode())
	return s.collectTrackIDs(ctx, credential, endpoint, target)
}

// RecommendationTrackIDs queries /recommendations with up to five genre seeds.
//
// Some accounts and regions 404 on recommendations with certain market
// settings; when that happens the query is retried exactly once without the
// market qualifier.
func (s *SpotifyService) RecommendationTrackIDs(ctx context.Context, credential string, limit int, seedGenres []string, market string) ([]string, error) {
	target := clampLimit(limit)
	if target == 0 {
		return []string{}, nil
	}

	if len(seedGenres) == 0 {
		seedGenres = []string{"pop"}
	}
	if len(seedGenres) > 5 {
		seedGenres = seedGenres[:5]
	}

	pageLimit := target
	if pageLimit > spotifyRecommendationLimit {
		pageLimit = spotifyRecommendationLimit
	}

	endpoint := func(market string) string {
		params := url.Values{
			"limit":       {fmt.Sprintf("%d", pageLimit)},
			"seed_genres": {strings.Join(seedGenres, ",")},
		}
		if market != "" {
			params.Set("market", market)
		}
		return "/recommendations?" + params.Encode()
	}

	var response recommendationsResponse
	err := s.doRequest(ctx, credential, http.MethodGet, endpoint(market), nil, &response)
	if err != nil {
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound || market == "" {
			return nil, err
		}
		response = recommendationsResponse{}
		if err := s.doRequest(ctx, credential, http.MethodGet, endpoint(""), nil, &response); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(response.Tracks))
	for _, track := range response.Tracks {
		if track == nil || track.ID == "" {
			continue
		}
		ids = append(ids, track.ID)
	}

	return dedupeCapped(ids, target), nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context, credential string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, credential, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreatePlaylist resolves the acting user and creates a playlist under that identity.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, credential, name, description string, public bool) (*CreatedPlaylist, error) {
	me, err := s.CurrentUser(ctx, credential)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created createdPlaylistResponse
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(me.ID))
	if err := s.doRequest(ctx, credential, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	playlistURL := created.ExternalURLs.Spotify
	if playlistURL == "" {
		playlistURL = "https://open.spotify.com/playlist/" + created.ID
	}

	return &CreatedPlaylist{ID: created.ID, URL: playlistURL}, nil
}

// AddTracks appends track URIs to the playlist in batches of 100, in order.
//
// A failure on any batch aborts the remaining batches; the playlist is left
// partially populated, which is a visible failure mode rather than a silent retry.
func (s *SpotifyService) AddTracks(ctx context.Context, credential, playlistID string, trackIDs []string) error {
	uris := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		if id == "" {
			continue
		}
		uris = append(uris, "spotify:track:"+id)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	for start := 0; start < len(uris); start += spotifyAddTracksBatch {
		end := start + spotifyAddTracksBatch
		if end > len(uris) {
			end = len(uris)
		}

		body := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, credential, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}

	return nil
}
