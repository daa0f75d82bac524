package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/desertthunder/moodlist/internal/repositories"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/desertthunder/moodlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// History lists previously generated playlists from the local database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	moodFilter := cmd.String("mood")
	useJSON := cmd.Bool("json")

	criteria := map[string]any{}
	if moodFilter != "" {
		mood, err := tasks.ParseMood(moodFilter)
		if err != nil {
			return fmt.Errorf("%w: pick one of %s", err, moodNames())
		}
		criteria["mood"] = string(mood)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	playlists := repositories.NewPlaylistRepository(db)
	records, err := playlists.List(criteria)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		type entry struct {
			ID         string    `json:"id"`
			Mood       string    `json:"mood"`
			SpotifyID  string    `json:"spotifyId"`
			SpotifyURL string    `json:"spotifyUrl"`
			Name       string    `json:"name"`
			TrackCount int       `json:"trackCount"`
			Source     string    `json:"source"`
			CreatedAt  time.Time `json:"createdAt"`
		}
		entries := make([]entry, len(records))
		for i, record := range records {
			entries[i] = entry{
				ID:         record.ID(),
				Mood:       record.Mood(),
				SpotifyID:  record.SpotifyID(),
				SpotifyURL: record.SpotifyURL(),
				Name:       record.Name(),
				TrackCount: record.TrackCount(),
				Source:     record.Source(),
				CreatedAt:  record.CreatedAt(),
			}
		}
		return r.writeJSON(entries, true)
	}

	return r.writePlain("%s", formatter.HistoryToText(records))
}
