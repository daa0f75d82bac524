package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/repositories"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/desertthunder/moodlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Generate builds a mood playlist and prints or writes the result.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	moodArg := cmd.StringArg("mood")
	format := cmd.String("format")
	outputFile := cmd.String("output")
	quiet := cmd.Bool("quiet")

	if moodArg == "" {
		return fmt.Errorf("%w: pick one of %s", shared.ErrMissingArgument, moodNames())
	}

	mood, err := tasks.ParseMood(moodArg)
	if err != nil {
		return fmt.Errorf("%w: pick one of %s", err, moodNames())
	}

	credential, err := r.credential()
	if err != nil {
		return err
	}

	r.logger.Info("starting generation", "mood", mood)
	if !quiet {
		r.writePlain("Generating a %s playlist...\n\n", mood)
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.FetchEngine:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchSaved, tasks.FetchEditorial, tasks.FetchRecommendations:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.TopUp:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Generate(ctx, progressCh, mood, credential)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	r.recordHistory(ctx, credential, result)

	if outputFile != "" {
		path, err := formatter.WriteResult(result, outputFile, format)
		if err != nil {
			return err
		}
		r.writePlain("✓ Result written to %s\n", path)
		return nil
	}

	rendered, err := formatter.Render(result, format)
	if err != nil {
		return err
	}

	if !quiet {
		r.writePlain("\n")
		r.writePlainHeader("Playlist Created!")
	}
	return r.writePlain("%s", rendered)
}

// recordHistory persists the generated playlist for later listing.
// History is best effort; the playlist already exists on Spotify.
func (r *Runner) recordHistory(ctx context.Context, credential string, result *tasks.GenerateResult) {
	if r.spotify == nil {
		return
	}

	profile, err := r.spotify.CurrentUser(ctx, credential)
	if err != nil {
		r.logger.Warn("profile lookup failed, skipping history", "err", err)
		return
	}
	if profile.Email == "" {
		return
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("failed to open database, skipping history", "err", err)
		return
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	user, err := users.GetByEmail(profile.Email)
	if err != nil {
		name := profile.DisplayName
		if name == "" {
			name = profile.ID
		}
		user = models.NewUser(0, profile.Email, name)
		if err := users.Create(user); err != nil {
			r.logger.Warn("failed to record user", "email", profile.Email, "err", err)
			return
		}
	}

	record := models.NewPlaylistRecord(0, user.ID(), string(result.Mood), result.PlaylistID, result.PlaylistURL, result.PlaylistName)
	record.SetTrackCount(len(result.TrackIDs))
	record.SetSource(string(result.Source))

	playlists := repositories.NewPlaylistRepository(db)
	if err := playlists.Create(record); err != nil {
		r.logger.Warn("failed to record playlist", "err", err)
	}
}

func moodNames() string {
	moods := tasks.Moods()
	names := make([]string, len(moods))
	for i, mood := range moods {
		names[i] = string(mood)
	}
	return strings.Join(names, ", ")
}
