package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/repositories"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
	tu "github.com/desertthunder/moodlist/internal/testing"
)

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "moodlist.db")
	config.Session.Secret = "test-secret"
	return config
}

// migrateTestDB creates the schema the history commands expect.
func migrateTestDB(t *testing.T, config *shared.Config) {
	t.Helper()
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer db.Close()
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
}

func newTestRunner(t *testing.T, config *shared.Config, output *bytes.Buffer) *Runner {
	t.Helper()
	return NewRunner(RunnerOpts{
		Config:      config,
		SessionPath: filepath.Join(t.TempDir(), "session"),
		Spotify:     &tu.MockSpotify{},
		Recommender: &tu.MockRecommender{},
		Engine:      &tu.MockEngine{},
		Logger:      shared.NewLogger(output),
		Output:      output,
	})
}

// storeActiveSession seals and writes a usable session for the runner.
func storeActiveSession(t *testing.T, r *Runner) {
	t.Helper()
	sess := session.NewSession("bearer-token", time.Hour, time.Now())
	if err := r.saveSession(sess); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := &tu.MockSpotify{}
			engine := &tu.MockEngine{}

			runner := NewRunner(RunnerOpts{
				Config:      config,
				ConfigPath:  "config.toml",
				SessionPath: "/tmp/session",
				Spotify:     spotify,
				Engine:      engine,
				Logger:      logger,
				Output:      output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "config.toml" {
				t.Error("expected configPath to be set")
			}
			if runner.sessionPath != "/tmp/session" {
				t.Error("expected sessionPath to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
			if runner.engine != engine {
				t.Error("expected engine to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with empty sessionPath uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.sessionPath == "" {
				t.Error("expected a default session path")
			}
		})

		t.Run("with nil engine builds mood engine", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Spotify:     &tu.MockSpotify{},
				Recommender: &tu.MockRecommender{},
			})

			if runner.engine == nil {
				t.Error("expected a mood engine to be constructed")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 7 {
			t.Errorf("expected 7 commands, got %d", len(commands))
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestSessionStorage(t *testing.T) {
	t.Run("round trips a sealed session", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)

		sess := session.NewSession("round-trip-token", time.Hour, time.Now())
		if err := runner.saveSession(sess); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		loaded, ok := runner.loadSession()
		if !ok {
			t.Fatal("expected session to load")
		}
		if loaded.AccessToken != "round-trip-token" {
			t.Errorf("expected access token to survive the round trip, got %q", loaded.AccessToken)
		}
	})

	t.Run("credential returns the stored token", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)
		storeActiveSession(t, runner)

		credential, err := runner.credential()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if credential != "bearer-token" {
			t.Errorf("expected stored token, got %q", credential)
		}
	})

	t.Run("credential fails without a session", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)

		_, err := runner.credential()
		if !errors.Is(err, shared.ErrCredentialMissing) {
			t.Errorf("expected ErrCredentialMissing, got %v", err)
		}
	})

	t.Run("credential fails with an expired session", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)

		sess := session.NewSession("stale", -time.Minute, time.Now())
		if err := runner.saveSession(sess); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		_, err := runner.credential()
		if !errors.Is(err, shared.ErrCredentialExpired) {
			t.Errorf("expected ErrCredentialExpired, got %v", err)
		}
	})
}

func TestAuthStatusCommand(t *testing.T) {
	t.Run("reports when not connected", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)

		cmd := authCommand(runner)
		if err := cmd.Run(context.Background(), []string{"auth", "status"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Not connected") {
			t.Errorf("expected disconnected status, got %q", output.String())
		}
	})

	t.Run("reports an active session", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)
		storeActiveSession(t, runner)

		cmd := authCommand(runner)
		if err := cmd.Run(context.Background(), []string{"auth", "status"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "✓ Connected to Spotify") {
			t.Errorf("expected connected status, got %q", output.String())
		}
	})

	t.Run("logout removes the session file", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)
		storeActiveSession(t, runner)

		cmd := authCommand(runner)
		if err := cmd.Run(context.Background(), []string{"auth", "logout"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, ok := runner.loadSession(); ok {
			t.Error("expected session to be gone after logout")
		}
	})
}

func TestGenerateCommand(t *testing.T) {
	t.Run("generates and records a playlist", func(t *testing.T) {
		config := testConfig(t)
		migrateTestDB(t, config)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)
		storeActiveSession(t, runner)

		cmd := generateCommand(runner)
		if err := cmd.Run(context.Background(), []string{"generate", "Happy"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Moodlist - Happy") {
			t.Errorf("expected playlist name in output, got %q", output.String())
		}

		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		records, err := repositories.NewPlaylistRepository(db).List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 history record, got %d", len(records))
		}
		if records[0].Mood() != "Happy" {
			t.Errorf("expected Happy record, got %s", records[0].Mood())
		}
		if records[0].TrackCount() != 3 {
			t.Errorf("expected 3 tracks recorded, got %d", records[0].TrackCount())
		}
	})

	t.Run("renders JSON when requested", func(t *testing.T) {
		config := testConfig(t)
		migrateTestDB(t, config)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)
		storeActiveSession(t, runner)

		cmd := generateCommand(runner)
		if err := cmd.Run(context.Background(), []string{"generate", "--format", "json", "--quiet", "Sad"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), `"playlistId": "mock-playlist"`) {
			t.Errorf("expected JSON result, got %q", output.String())
		}
	})

	t.Run("rejects an unknown mood", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)
		storeActiveSession(t, runner)

		cmd := generateCommand(runner)
		err := cmd.Run(context.Background(), []string{"generate", "Furious"})
		if !errors.Is(err, shared.ErrInvalidMood) {
			t.Errorf("expected ErrInvalidMood, got %v", err)
		}
	})

	t.Run("requires a mood argument", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)

		cmd := generateCommand(runner)
		err := cmd.Run(context.Background(), []string{"generate"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("requires a connected session", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)

		cmd := generateCommand(runner)
		err := cmd.Run(context.Background(), []string{"generate", "Happy"})
		if !errors.Is(err, shared.ErrCredentialMissing) {
			t.Errorf("expected ErrCredentialMissing, got %v", err)
		}
	})

	t.Run("surfaces engine failures", func(t *testing.T) {
		config := testConfig(t)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)
		runner.engine = &tu.MockEngine{Err: shared.NewRequestError(shared.CategoryNoCandidates, "No top tracks found and no fallback tracks were available.", "")}
		storeActiveSession(t, runner)

		cmd := generateCommand(runner)
		err := cmd.Run(context.Background(), []string{"generate", "Calm"})
		if err == nil {
			t.Fatal("expected the engine error to propagate")
		}

		var reqErr *shared.RequestError
		if !errors.As(err, &reqErr) || reqErr.Category != shared.CategoryNoCandidates {
			t.Errorf("expected no_tracks category, got %v", err)
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	seedHistory := func(t *testing.T, config *shared.Config) {
		t.Helper()
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		users := repositories.NewUserRepository(db)
		user := models.NewUser(0, "listener@example.com", "Listener")
		if err := users.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		record := models.NewPlaylistRecord(0, user.ID(), "Calm", "abc123", "https://open.spotify.com/playlist/abc123", "Moodlist - Calm")
		record.SetTrackCount(10)
		record.SetSource("saved")
		if err := repositories.NewPlaylistRepository(db).Create(record); err != nil {
			t.Fatalf("failed to create playlist record: %v", err)
		}
	}

	t.Run("lists recorded playlists", func(t *testing.T) {
		config := testConfig(t)
		migrateTestDB(t, config)
		seedHistory(t, config)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)

		cmd := historyCommand(runner)
		if err := cmd.Run(context.Background(), []string{"history"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Moodlist - Calm") {
			t.Errorf("expected playlist name in output, got %q", output.String())
		}
	})

	t.Run("filters by mood", func(t *testing.T) {
		config := testConfig(t)
		migrateTestDB(t, config)
		seedHistory(t, config)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)

		cmd := historyCommand(runner)
		if err := cmd.Run(context.Background(), []string{"history", "--mood", "Happy"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "No playlists generated yet.") {
			t.Errorf("expected empty listing for Happy, got %q", output.String())
		}
	})

	t.Run("outputs JSON", func(t *testing.T) {
		config := testConfig(t)
		migrateTestDB(t, config)
		seedHistory(t, config)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)

		cmd := historyCommand(runner)
		if err := cmd.Run(context.Background(), []string{"history", "--json"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), `"spotifyId": "abc123"`) {
			t.Errorf("expected JSON output, got %q", output.String())
		}
	})
}

func TestAllowCommand(t *testing.T) {
	grantFor := func(t *testing.T, config *shared.Config, email string) *models.AccessGrant {
		t.Helper()
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		user, err := repositories.NewUserRepository(db).GetByEmail(email)
		if err != nil {
			t.Fatalf("expected user for %s: %v", email, err)
		}
		grant, err := repositories.NewAccessGrantRepository(db).GetByUserID(user.ID())
		if err != nil {
			t.Fatalf("expected grant for %s: %v", email, err)
		}
		return grant
	}

	t.Run("creates a user and grant", func(t *testing.T) {
		config := testConfig(t)
		migrateTestDB(t, config)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)

		cmd := allowCommand(runner)
		if err := cmd.Run(context.Background(), []string{"allow", "new@example.com"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !grantFor(t, config, "new@example.com").Allowlisted() {
			t.Error("expected the grant to be allowlisted")
		}
	})

	t.Run("revokes an existing grant", func(t *testing.T) {
		config := testConfig(t)
		migrateTestDB(t, config)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)

		cmd := allowCommand(runner)
		if err := cmd.Run(context.Background(), []string{"allow", "member@example.com"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := cmd.Run(context.Background(), []string{"allow", "--revoke", "member@example.com"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if grantFor(t, config, "member@example.com").Allowlisted() {
			t.Error("expected the grant to be revoked")
		}
	})

	t.Run("revoking an unknown account fails", func(t *testing.T) {
		config := testConfig(t)
		migrateTestDB(t, config)
		output := &bytes.Buffer{}
		runner := newTestRunner(t, config, output)

		cmd := allowCommand(runner)
		err := cmd.Run(context.Background(), []string{"allow", "--revoke", "ghost@example.com"})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("requires an email", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newTestRunner(t, testConfig(t), output)

		cmd := allowCommand(runner)
		err := cmd.Run(context.Background(), []string{"allow"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
