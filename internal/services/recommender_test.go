package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/moodlist/internal/shared"
)

func TestRecommenderService(t *testing.T) {
	t.Run("Recommend", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/recommendations" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["mood"] != "Happy" {
				t.Errorf("expected mood Happy, got %s", body["mood"])
			}
			if body["access_token"] != "tok" {
				t.Errorf("expected access_token tok, got %s", body["access_token"])
			}

			json.NewEncoder(w).Encode(map[string]any{"trackIds": []string{"a", "", "b"}})
		}))
		defer server.Close()

		svc := NewRecommenderService(server.URL, server.Client())

		ids, err := svc.Recommend(context.Background(), "Happy", "tok")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Errorf("expected [a b], got %v", ids)
		}
	})

	t.Run("Engine Error Detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{"detail": "/me/top/tracks:no_top_tracks"})
		}))
		defer server.Close()

		svc := NewRecommenderService(server.URL, server.Client())

		_, err := svc.Recommend(context.Background(), "Happy", "tok")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != 422 {
			t.Errorf("expected status 422, got %d", apiErr.Status)
		}
		if apiErr.Body != "/me/top/tracks:no_top_tracks" {
			t.Errorf("expected detail in body, got %q", apiErr.Body)
		}
	})

	t.Run("Error Message Fallbacks", func(t *testing.T) {
		cases := []struct {
			name string
			body string
			want string
		}{
			{"message field", `{"message":"boom"}`, "boom"},
			{"error field", `{"error":"bad"}`, "bad"},
			{"no fields", `{}`, "502"},
			{"non-json body", `upstream exploded`, "502"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadGateway)
					w.Write([]byte(tc.body))
				}))
				defer server.Close()

				svc := NewRecommenderService(server.URL, server.Client())

				_, err := svc.Recommend(context.Background(), "Calm", "tok")
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %v", err)
				}
				if apiErr.Body != tc.want {
					t.Errorf("expected body %q, got %q", tc.want, apiErr.Body)
				}
			})
		}
	})

	t.Run("Unreachable Engine", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // refuse connections

		svc := NewRecommenderService(server.URL, nil)

		_, err := svc.Recommend(context.Background(), "Sad", "tok")
		if !errors.Is(err, shared.ErrEngineUnreachable) {
			t.Errorf("expected ErrEngineUnreachable, got %v", err)
		}
	})

	t.Run("Default Base URL", func(t *testing.T) {
		svc := NewRecommenderService("", nil)
		if svc.baseURL != "http://127.0.0.1:8000" {
			t.Errorf("unexpected default base URL %s", svc.baseURL)
		}
	})
}
