// package formatter renders generation results and playlist history for CLI output (plain text, Markdown, JSON)
package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/desertthunder/moodlist/internal/tasks"
)

// ResultToText converts a GenerateResult to plain text format
func ResultToText(result *tasks.GenerateResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", result.PlaylistName))
	buf.WriteString(fmt.Sprintf("Mood: %s\n", result.Mood))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n", len(result.TrackIDs)))
	buf.WriteString(fmt.Sprintf("Source: %s\n", result.Source))
	if result.PlaylistURL != "" {
		buf.WriteString(fmt.Sprintf("URL: %s\n", result.PlaylistURL))
	}
	if result.Message != "" {
		buf.WriteString(fmt.Sprintf("\n%s\n", result.Message))
	}

	return buf.Bytes()
}

// ResultToMarkdown converts a GenerateResult to Markdown format
func ResultToMarkdown(result *tasks.GenerateResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", result.PlaylistName))
	buf.WriteString(fmt.Sprintf("**Mood**: %s\n", result.Mood))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(result.TrackIDs)))
	buf.WriteString(fmt.Sprintf("**Source**: %s\n", result.Source))
	if result.PlaylistURL != "" {
		buf.WriteString(fmt.Sprintf("**Listen**: [open in Spotify](%s)\n", result.PlaylistURL))
	}
	if result.Message != "" {
		buf.WriteString(fmt.Sprintf("\n> %s\n", result.Message))
	}

	buf.WriteString("\n## Tracks\n\n")
	for i, id := range result.TrackIDs {
		buf.WriteString(fmt.Sprintf("%d. https://open.spotify.com/track/%s\n", i+1, id))
	}

	return buf.Bytes()
}

// ResultToJSON generates a JSON representation of a generation result
func ResultToJSON(result *tasks.GenerateResult) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// HistoryToText renders playlist history records as an aligned plain text listing
func HistoryToText(records []*models.PlaylistRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No playlists generated yet.\n")
		return buf.Bytes()
	}

	for i, record := range records {
		buf.WriteString(fmt.Sprintf("%d. %s [%s] %d tracks (%s) %s\n",
			i+1,
			record.Name(),
			record.Mood(),
			record.TrackCount(),
			record.Source(),
			record.CreatedAt().Format("2006-01-02"),
		))
		if record.SpotifyURL() != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", record.SpotifyURL()))
		}
	}

	return buf.Bytes()
}

// Render converts a GenerateResult to the named format: "text", "markdown", or "json".
func Render(result *tasks.GenerateResult, format string) ([]byte, error) {
	switch format {
	case "", "text":
		return ResultToText(result), nil
	case "markdown", "md":
		return ResultToMarkdown(result), nil
	case "json":
		return ResultToJSON(result)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteResult renders a GenerateResult and writes it to the given path.
//
// Defaults to {playlistID}.{ext} when path is empty.
func WriteResult(result *tasks.GenerateResult, path, format string) (string, error) {
	data, err := Render(result, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		ext := "txt"
		switch format {
		case "markdown", "md":
			ext = "md"
		case "json":
			ext = "json"
		}
		path = fmt.Sprintf("%s.%s", result.PlaylistID, ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}

	return path, nil
}
