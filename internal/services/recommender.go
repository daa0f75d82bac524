// Recommender client for the mood recommendation engine (FastAPI service)
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/moodlist/internal/shared"
)

// RecommenderService calls the external recommendation engine over HTTP.
//
// The engine accepts {mood, access_token} and returns either a track
// identifier list or a structured error with a detail/message/error field.
type RecommenderService struct {
	baseURL    string
	httpClient *http.Client
}

// NewRecommenderService creates a client for the recommendation engine.
func NewRecommenderService(baseURL string, client *http.Client) *RecommenderService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &RecommenderService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// recommendationRequest is the engine's expected payload.
type recommendationRequest struct {
	Mood        string `json:"mood"`
	AccessToken string `json:"access_token"`
}

// engineResponse covers both the success and error shapes of the engine.
type engineResponse struct {
	TrackIDs []string `json:"trackIds"`
	Detail   any      `json:"detail"`
	Message  any      `json:"message"`
	Error    any      `json:"error"`
}

// detailMessage extracts the most specific human-readable field the engine provided.
func (r *engineResponse) detailMessage(status int) string {
	for _, field := range []any{r.Detail, r.Message, r.Error} {
		if s, ok := field.(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("%d", status)
}

// Recommend asks the engine for candidate tracks for the given mood.
//
// Transport failures wrap [shared.ErrEngineUnreachable]; non-success engine
// responses become an [*APIError] with the engine's status and detail message,
// the signal the classifier branches on.
func (a *RecommenderService) Recommend(ctx context.Context, mood, credential string) ([]string, error) {
	payload, err := json.Marshal(recommendationRequest{Mood: mood, AccessToken: credential})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/recommendations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEngineUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEngineUnreachable, err)
	}

	var decoded engineResponse
	// a malformed body is tolerated on errors and fatal on success below
	jsonErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: decoded.detailMessage(resp.StatusCode)}
	}

	if jsonErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", jsonErr)
	}

	ids := make([]string, 0, len(decoded.TrackIDs))
	for _, id := range decoded.TrackIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
