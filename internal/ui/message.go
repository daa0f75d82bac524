package ui

import (
	"github.com/desertthunder/moodlist/internal/tasks"
)

// progressUpdateMsg carries an engine progress report into the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// generateCompleteMsg signals the end of a playlist generation run.
type generateCompleteMsg struct {
	result *tasks.GenerateResult
	err    error
}
