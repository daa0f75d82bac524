package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/moodlist/internal/tasks"
)

var _ list.Item = moodItem{}

// moodItem wraps [tasks.Mood] to implement [list.Item].
type moodItem struct {
	mood tasks.Mood
}

func (i moodItem) FilterValue() string { return string(i.mood) }
func (i moodItem) Title() string       { return string(i.mood) }
func (i moodItem) Description() string {
	return "seeds: " + strings.Join(i.mood.SeedGenres(), ", ")
}

func moodItems() []list.Item {
	moods := tasks.Moods()
	items := make([]list.Item, len(moods))
	for i, mood := range moods {
		items[i] = moodItem{mood: mood}
	}
	return items
}
