package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/moodlist/internal/shared"
)

// Mood is a listener mood accepted by the playlist engine.
type Mood string

const (
	MoodHappy   Mood = "Happy"
	MoodCalm    Mood = "Calm"
	MoodNeutral Mood = "Neutral"
	MoodSad     Mood = "Sad"
	MoodVerySad Mood = "Very Sad"
)

// seedGenres maps each mood to the recommendation seeds used when the
// engine and library tiers come up empty.
var seedGenres = map[Mood][]string{
	MoodHappy:   {"pop", "dance", "edm"},
	MoodCalm:    {"chill", "acoustic", "ambient"},
	MoodNeutral: {"pop", "indie", "rock"},
	MoodSad:     {"acoustic", "ambient", "indie"},
	MoodVerySad: {"ambient", "acoustic", "indie"},
}

// Moods returns the accepted moods in display order.
func Moods() []Mood {
	return []Mood{MoodHappy, MoodCalm, MoodNeutral, MoodSad, MoodVerySad}
}

// ParseMood normalizes raw user input into a Mood. Matching is
// case-insensitive and tolerates surrounding whitespace.
func ParseMood(raw string) (Mood, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, m := range Moods() {
		if strings.ToLower(string(m)) == needle {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", shared.ErrInvalidMood, raw)
}

// SeedGenres returns the recommendation seed genres for a mood.
func (m Mood) SeedGenres() []string {
	if seeds, ok := seedGenres[m]; ok {
		return append([]string(nil), seeds...)
	}
	return []string{"pop"}
}

// PlaylistName is the title given to generated playlists.
func (m Mood) PlaylistName() string {
	return fmt.Sprintf("Moodlist - %s", m)
}

// PlaylistDescription is the description attached to generated playlists.
func (m Mood) PlaylistDescription() string {
	return fmt.Sprintf("A playlist curated for your %s mood.", strings.ToLower(string(m)))
}
