// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for mood playlist generation:
//  1. [MoodListView] : Browse and select a mood
//  2. [ConfirmView] : Confirm the generation run
//  3. [GenerateView] : Monitor real-time progress updates
//  4. [ResultView] : Display the created playlist and any fallback notes
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the mood engine, providing non-blocking status reporting while tracks are sourced.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
